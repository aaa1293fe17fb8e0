package solutions

import (
	"context"
	"time"

	"github.com/emergent-company/omviews/internal/handlers"
	"github.com/emergent-company/omviews/internal/mcp"
	"github.com/emergent-company/omviews/internal/tools/params"
	"github.com/emergent-company/omviews/internal/validation"
)

type nameParams struct {
	params.Query
	Name string `json:"name"`
}

type searchParams struct {
	params.Query
	SearchString string `json:"search_string"`
}

type statusParams struct {
	GUID   string `json:"guid"`
	Status string `json:"status"`
}

type deleteParams struct {
	GUID    string `json:"guid"`
	Cascade bool   `json:"cascade,omitempty"`
}

type pairParams struct {
	From string `json:"from_guid"`
	To   string `json:"to_guid"`
}

func pairFields(from, to string) []params.Field {
	return []params.Field{
		params.String("from_guid", "GUID of the "+from).Req(),
		params.String("to_guid", "GUID of the "+to).Req(),
	}
}

// The builders below cover the lookup shapes shared by every element kind.

func getTool[T any](prefix, what string, get func(context.Context, string, *time.Time) (T, error)) mcp.Tool {
	return mcp.NewTool(prefix+"_get", "Get a "+what+" by GUID.",
		params.Schema(params.GUIDFields(what)...),
		func(ctx context.Context, p params.GUID) (any, error) {
			at, err := p.At()
			if err != nil {
				return nil, err
			}
			return get(ctx, p.GUID, at)
		})
}

func nameTool[T any](prefix, what string, get func(context.Context, string, handlers.QueryOptions) (T, error)) mcp.Tool {
	return mcp.NewTool(prefix+"_get_by_name", "Get each "+what+" whose qualified name or display name equals name.",
		params.Schema(params.With(params.QueryFields, params.String("name", "Name to match exactly").Req())...),
		func(ctx context.Context, p nameParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return get(ctx, p.Name, q)
		})
}

func findTool[T any](prefix, what string, find func(context.Context, string, handlers.QueryOptions) (T, error)) mcp.Tool {
	return mcp.NewTool(prefix+"_find", "Find each "+what+" matching a case-insensitive regular expression.",
		params.Schema(params.With(params.QueryFields, params.String("search_string", "Regular expression").Req())...),
		func(ctx context.Context, p searchParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return find(ctx, p.SearchString, q)
		})
}

func statusTool(prefix, what string, update func(context.Context, string, string) error) mcp.Tool {
	return mcp.NewTool(prefix+"_update_status", "Move a "+what+" to a new content status.",
		params.Schema(params.String("guid", "GUID of the "+what).Req(),
			params.String("status", "New content status").OneOf(validation.KnownStatuses()...).Req()),
		func(ctx context.Context, p statusParams) (any, error) {
			return params.OK, update(ctx, p.GUID, p.Status)
		})
}

func deleteTool(prefix, what string, del func(context.Context, string, bool) error) mcp.Tool {
	return mcp.NewTool(prefix+"_delete",
		"Delete a "+what+". Elements anchored to it are deleted too when cascade is set; otherwise their presence is an error.",
		params.Schema(params.String("guid", "GUID of the "+what).Req(), params.Bool("cascade", "Delete anchored elements")),
		func(ctx context.Context, p deleteParams) (any, error) {
			return params.OK, del(ctx, p.GUID, p.Cascade)
		})
}

func unlinkTool(name, description, from, to string, unlink func(context.Context, string, string) error) mcp.Tool {
	return mcp.NewTool(name, description,
		params.Schema(pairFields(from, to)...),
		func(ctx context.Context, p pairParams) (any, error) {
			return params.OK, unlink(ctx, p.From, p.To)
		})
}
