package access

import (
	"fmt"
	"strings"

	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ParseRole(s string) (models.Role, error) {
	r := models.Role(normalize(s))
	if _, ok := roleCapabilities[r]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", common.ErrorValidation, s)
	}
	return r, nil
}

func ParseClassification(s string) (models.Classification, error) {
	c := models.Classification(normalize(s))
	for _, known := range classificationOrder {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown classification %q", common.ErrorValidation, s)
}

func ParseCategory(s string) (models.Category, error) {
	c := models.Category(normalize(s))
	switch c {
	case models.CategoryCredential, models.CategorySOP, models.CategoryLink, models.CategoryDocument:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown category %q", common.ErrorValidation, s)
}

func ParseAction(s string) (Action, error) {
	a := Action(normalize(s))
	switch a {
	case ActionView, ActionCreate, ActionEdit, ActionDelete:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", common.ErrorValidation, s)
}
