package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Chain returns a single-statement snapshot of an idea and its downstream
// artifacts. It returns nil, nil when the idea does not exist.
func (s *Store) Chain(ctx context.Context, ideaID int64) (*Chain, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+chainColumns+" "+chainFrom+" WHERE i.id = ?", ideaID)
	chain, err := scanChain(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chain: %w", err)
	}
	return chain, nil
}

// Chains returns snapshots for every idea matching filter, ordered by id.
func (s *Store) Chains(ctx context.Context, filter ListFilter) ([]*Chain, error) {
	var (
		where []string
		args  []any
	)
	if filter.Priority != "" {
		priority, err := ParsePriority(string(filter.Priority))
		if err != nil {
			return nil, err
		}
		where = append(where, "i.priority = ?")
		args = append(args, string(priority))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		where = append(where, "i.status = ?")
		args = append(args, status)
	}

	query := "SELECT " + chainColumns + " " + chainFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	defer rows.Close()

	var chains []*Chain
	for rows.Next() {
		chain, err := scanChain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chain: %w", err)
		}
		chains = append(chains, chain)
	}
	return chains, rows.Err()
}
