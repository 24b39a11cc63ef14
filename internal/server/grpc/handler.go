package grpc

import (
	"context"
	"fmt"

	"github.com/ShubhamGupta2412/vaultboard/internal/access"
	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/services"
	"google.golang.org/protobuf/types/known/structpb"
)

var sortFields = map[string]models.SortField{
	"":                "",
	"updated_at":      models.SortUpdatedAt,
	"created_at":      models.SortCreatedAt,
	"title":           models.SortTitle,
	"expiration_date": models.SortExpiration,
}

// caller resolves the authenticated principal for a handler.
func (s *GRPCServer) caller(ctx context.Context, method string) (models.Principal, error) {
	p, err := s.resolver.Current(ctx)
	if err != nil {
		return models.Principal{}, s.toStatus(ctx, method, err)
	}
	return p, nil
}

func (s *GRPCServer) Signup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(in)
	res, err := s.principals.SelfSignup(ctx, r.str("email"), r.str("display_name"), r.str("role"))
	if err != nil {
		return nil, s.toStatus(ctx, MethodSignup, err)
	}
	principal, err := jsonValue(res.Principal)
	if err != nil {
		return nil, s.toStatus(ctx, MethodSignup, err)
	}
	return reply(map[string]any{"principal": principal, "access_token": res.AccessToken})
}

func (s *GRPCServer) CreateEntry(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.caller(ctx, MethodCreateEntry)
	if err != nil {
		return nil, err
	}
	r := newRequest(in)
	tags, err := r.strings("tags")
	if err != nil {
		return nil, s.toStatus(ctx, MethodCreateEntry, err)
	}
	exp, err := r.timestamp("expiration_date")
	if err != nil {
		return nil, s.toStatus(ctx, MethodCreateEntry, err)
	}

	e, err := s.entries.Create(ctx, p, services.CreateInput{
		Title:          r.str("title"),
		Content:        r.str("content"),
		Category:       r.str("category"),
		Classification: r.str("classification"),
		Tags:           tags,
		IsSensitive:    r.boolean("is_sensitive"),
		ExpirationDate: exp,
	})
	if err != nil {
		return nil, s.toStatus(ctx, MethodCreateEntry, err)
	}
	return reply(map[string]any{"entry": entryMap(e)})
}

func (s *GRPCServer) GetEntry(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.caller(ctx, MethodGetEntry)
	if err != nil {
		return nil, err
	}
	e, err := s.entries.Get(ctx, p, newRequest(in).str("id"))
	if err != nil {
		return nil, s.toStatus(ctx, MethodGetEntry, err)
	}
	return reply(map[string]any{"entry": entryMap(e)})
}

func patchFrom(r request) (models.EntryPatch, error) {
	var patch models.EntryPatch
	if r.has("title") {
		v := r.str("title")
		patch.Title = &v
	}
	if r.has("content") {
		v := r.str("content")
		patch.Content = &v
	}
	if r.has("category") {
		v := models.Category(r.str("category"))
		patch.Category = &v
	}
	if r.has("classification") {
		v := models.Classification(r.str("classification"))
		patch.Classification = &v
	}
	if r.has("is_sensitive") {
		v := r.boolean("is_sensitive")
		patch.IsSensitive = &v
	}
	if r.has("tags") {
		tags, err := r.strings("tags")
		if err != nil {
			return patch, err
		}
		patch.Tags, patch.SetTags = tags, true
	}
	if r.isNull("expiration_date") {
		patch.ClearExpiry = true
	} else {
		exp, err := r.timestamp("expiration_date")
		if err != nil {
			return patch, err
		}
		patch.ExpirationDate = exp
	}
	return patch, nil
}

func (s *GRPCServer) UpdateEntry(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.caller(ctx, MethodUpdateEntry)
	if err != nil {
		return nil, err
	}
	r := newRequest(in)
	patch, err := patchFrom(r)
	if err != nil {
		return nil, s.toStatus(ctx, MethodUpdateEntry, err)
	}
	e, err := s.entries.Update(ctx, p, r.str("id"), patch)
	if err != nil {
		return nil, s.toStatus(ctx, MethodUpdateEntry, err)
	}
	return reply(map[string]any{"entry": entryMap(e)})
}

func (s *GRPCServer) DeleteEntry(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.caller(ctx, MethodDeleteEntry)
	if err != nil {
		return nil, err
	}
	id := newRequest(in).str("id")
	if err := s.entries.Delete(ctx, p, id); err != nil {
		return nil, s.toStatus(ctx, MethodDeleteEntry, err)
	}
	return reply(map[string]any{"id": id, "deleted": true})
}

func listArgs(r request) (models.ListFilter, models.Sort, models.Page, error) {
	filter := models.ListFilter{
		Search:  r.str("search"),
		Tag:     r.str("tag"),
		OwnerID: r.str("owner_id"),
	}
	if v := r.str("category"); v != "" {
		c, err := access.ParseCategory(v)
		if err != nil {
			return filter, models.Sort{}, models.Page{}, err
		}
		filter.Category = c
	}
	if v := r.str("classification"); v != "" {
		c, err := access.ParseClassification(v)
		if err != nil {
			return filter, models.Sort{}, models.Page{}, err
		}
		filter.Classification = c
	}

	field, ok := sortFields[r.str("sort")]
	if !ok {
		return filter, models.Sort{}, models.Page{}, fmt.Errorf("%w: unknown sort field %q", common.ErrorValidation, r.str("sort"))
	}
	sort := models.Sort{Field: field, Desc: r.boolean("desc")}

	number, err := r.integer("page")
	if err != nil {
		return filter, sort, models.Page{}, err
	}
	size, err := r.integer("page_size")
	if err != nil {
		return filter, sort, models.Page{}, err
	}
	if number > models.MaxPageNumber {
		return filter, sort, models.Page{}, fmt.Errorf("%w: page must not exceed %d", common.ErrorValidation, models.MaxPageNumber)
	}
	return filter, sort, models.Page{Number: number, Size: size}, nil
}

func (s *GRPCServer) ListEntries(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.caller(ctx, MethodListEntries)
	if err != nil {
		return nil, err
	}
	filter, sort, page, err := listArgs(newRequest(in))
	if err != nil {
		return nil, s.toStatus(ctx, MethodListEntries, err)
	}
	res, err := s.entries.List(ctx, p, filter, sort, page)
	if err != nil {
		return nil, s.toStatus(ctx, MethodListEntries, err)
	}

	items := make([]any, 0, len(res.Entries))
	for _, e := range res.Entries {
		items = append(items, entryMap(e))
	}
	return reply(map[string]any{
		"entries":   items,
		"total":     res.Total,
		"page":      res.Page.Number,
		"page_size": res.Page.Size,
	})
}

func (s *GRPCServer) ExportEntry(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.caller(ctx, MethodExportEntry)
	if err != nil {
		return nil, err
	}
	id := newRequest(in).str("id")
	doc, err := s.entries.Export(ctx, p, id)
	if err != nil {
		return nil, s.toStatus(ctx, MethodExportEntry, err)
	}
	return reply(map[string]any{"id": id, "document": string(doc)})
}

func (s *GRPCServer) EntryStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.caller(ctx, MethodEntryStats)
	if err != nil {
		return nil, err
	}
	r := newRequest(in)
	limit, err := r.integer("recent_limit")
	if err != nil {
		return nil, s.toStatus(ctx, MethodEntryStats, err)
	}
	st, err := s.entries.Stats(ctx, p, r.str("id"), limit)
	if err != nil {
		return nil, s.toStatus(ctx, MethodEntryStats, err)
	}

	stats, err := jsonValue(st.Stats)
	if err != nil {
		return nil, s.toStatus(ctx, MethodEntryStats, err)
	}
	recent, err := jsonValue(st.Recent)
	if err != nil {
		return nil, s.toStatus(ctx, MethodEntryStats, err)
	}
	return reply(map[string]any{"stats": stats, "recent": recent})
}

func (s *GRPCServer) ExpiringEntries(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.caller(ctx, MethodExpiringEntries)
	if err != nil {
		return nil, err
	}
	horizon, err := newRequest(in).integer("horizon_days")
	if err != nil {
		return nil, s.toStatus(ctx, MethodExpiringEntries, err)
	}
	items, err := s.entries.Expiring(ctx, p, horizon)
	if err != nil {
		return nil, s.toStatus(ctx, MethodExpiringEntries, err)
	}
	list, err := jsonValue(items)
	if err != nil {
		return nil, s.toStatus(ctx, MethodExpiringEntries, err)
	}
	return reply(map[string]any{"items": list})
}

func (s *GRPCServer) AttachFile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.caller(ctx, MethodAttachFile)
	if err != nil {
		return nil, err
	}
	r := newRequest(in)
	data, err := r.bytes("data")
	if err != nil {
		return nil, s.toStatus(ctx, MethodAttachFile, err)
	}
	ref, err := s.entries.AttachFile(ctx, p, r.str("id"), r.str("name"), r.str("content_type"), data)
	if err != nil {
		return nil, s.toStatus(ctx, MethodAttachFile, err)
	}
	return reply(map[string]any{"file": fileMap(ref)})
}

func (s *GRPCServer) FileURL(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.caller(ctx, MethodFileURL)
	if err != nil {
		return nil, err
	}
	url, err := s.entries.FileURL(ctx, p, newRequest(in).str("id"))
	if err != nil {
		return nil, s.toStatus(ctx, MethodFileURL, err)
	}
	return reply(map[string]any{"url": url})
}
