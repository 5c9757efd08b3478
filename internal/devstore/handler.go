package devstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

// Columns each collection accepts in filter predicates. Requests naming any
// other column are rejected rather than silently ignored.
var collectionFields = map[string]map[string]bool{
	"support_threads": {
		"id": true, "ticket_id": true, "created_at": true,
		"version": true, "category": true,
	},
	"dialog_messages": {
		"id": true, "thread_id": true, "ticket_id": true,
		"direction": true, "sent_at": true, "responsible_party": true,
	},
	"reply_comparisons": {
		"id": true, "thread_id": true, "responsible_party": true,
		"classification": true, "changed": true, "created_at": true,
		"version": true, "category": true,
	},
}

// Handler returns the HTTP surface of the store: HEAD and GET on each
// collection path, with PostgREST-style filters in the query string.
func (s *Store) Handler() http.Handler {
	r := chi.NewRouter()
	r.Head("/{collection}", s.handleCollection)
	r.Get("/{collection}", s.handleCollection)
	return r
}

func (s *Store) handleCollection(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	fields, ok := collectionFields[collection]
	if !ok {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("unknown collection %q", collection))
		return
	}

	where, args, err := buildWhere(fields, r.URL.Query())
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	wantCount := r.Method == http.MethodHead ||
		strings.Contains(r.Header.Get("Prefer"), "count=exact")
	if wantCount {
		total, err := s.countRows(r.Context(), collection, where, args)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Range", contentRange(total))
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	limit, offset, err := pageBounds(r.URL.Query())
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.listRows(r.Context(), collection, where, args, limit, offset)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

func (s *Store) countRows(ctx context.Context, collection, where string, args []any) (int, error) {
	query := "SELECT COUNT(*) FROM " + collection + where
	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to expand count query: %w", err)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, query, expanded...); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return total, nil
}

// listRows pages through a collection in id order so repeated requests see a
// stable sequence regardless of insertion order.
func (s *Store) listRows(ctx context.Context, collection, where string, args []any, limit, offset int) (any, error) {
	query := "SELECT * FROM " + collection + where + " ORDER BY id LIMIT ? OFFSET ?"
	query, expanded, err := sqlx.In(query, append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to expand list query: %w", err)
	}

	switch collection {
	case "support_threads":
		rows := []ThreadRow{}
		if err := s.db.SelectContext(ctx, &rows, query, expanded...); err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", collection, err)
		}
		return rows, nil

	case "dialog_messages":
		rows := []MessageRow{}
		if err := s.db.SelectContext(ctx, &rows, query, expanded...); err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", collection, err)
		}
		return rows, nil

	case "reply_comparisons":
		rows := []ComparisonRow{}
		if err := s.db.SelectContext(ctx, &rows, query, expanded...); err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", collection, err)
		}
		for i := range rows {
			if rows[i].DetailsText.Valid && json.Valid([]byte(rows[i].DetailsText.String)) {
				rows[i].Details = json.RawMessage(rows[i].DetailsText.String)
			}
		}
		return rows, nil
	}

	return nil, fmt.Errorf("unknown collection %q", collection)
}

// buildWhere translates filter parameters into a WHERE clause. IN lists stay
// as slice args for sqlx.In to expand. Keys are sorted so the generated SQL
// is stable.
func buildWhere(fields map[string]bool, params url.Values) (string, []any, error) {
	keys := make([]string, 0, len(params))
	for key := range params {
		switch key {
		case "limit", "offset", "select", "order":
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var clauses []string
	var args []any
	for _, key := range keys {
		if !fields[key] {
			return "", nil, fmt.Errorf("cannot filter on column %q", key)
		}
		for _, value := range params[key] {
			clause, arg, err := parsePredicate(key, value)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, clause)
			if arg != nil {
				args = append(args, arg)
			}
		}
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func parsePredicate(field, value string) (string, any, error) {
	switch {
	case strings.HasPrefix(value, "eq."):
		return field + " = ?", strings.TrimPrefix(value, "eq."), nil
	case strings.HasPrefix(value, "gte."):
		return field + " >= ?", strings.TrimPrefix(value, "gte."), nil
	case strings.HasPrefix(value, "lte."):
		return field + " <= ?", strings.TrimPrefix(value, "lte."), nil
	case strings.HasPrefix(value, "in.(") && strings.HasSuffix(value, ")"):
		inner := strings.TrimSuffix(strings.TrimPrefix(value, "in.("), ")")
		parts := strings.Split(inner, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return field + " IN (?)", parts, nil
	case value == "is.true":
		return field + " = 1", nil, nil
	case value == "is.false":
		return field + " = 0", nil, nil
	case value == "is.null":
		return field + " IS NULL", nil, nil
	case value == "not.is.null":
		return field + " IS NOT NULL", nil, nil
	}
	return "", nil, fmt.Errorf("unsupported predicate %q for column %q", value, field)
}

func pageBounds(params url.Values) (limit, offset int, err error) {
	// SQLite treats a negative LIMIT as unbounded.
	limit = -1
	if raw := params.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", raw)
		}
	}
	if raw := params.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", raw)
		}
	}
	return limit, offset, nil
}

func contentRange(total int) string {
	if total == 0 {
		return "*/0"
	}
	return fmt.Sprintf("0-%d/%d", total-1, total)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
