package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "23505", ConstraintName: "time_entries_one_running_per_user"}, "unique_violation"},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), "foreign_key_violation"},
		{&pgconn.PgError{Code: "23514"}, "check_violation"},
		{&pgconn.PgError{Code: "22P02"}, "invalid_text_representation"},
		{&pgconn.PgError{Code: "53300"}, "pg_53300"},
		{fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{context.Canceled, "canceled"},
		{errors.New("failed to connect: connection refused"), "connection"},
		{errors.New("boom"), "unknown"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, classifyDBErr(tc.err), "err=%v", tc.err)
	}
}

// counterValue sums the samples of a gathered counter family whose labels
// include every pair in match.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, match map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			ok := true
			for k, v := range match {
				if labels[k] != v {
					ok = false
				}
			}
			if ok {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestObserveDB_NoRowsIsNotAnError(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	err := p.ObserveDB("ownership.task", func() error { return pgx.ErrNoRows })
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Zero(t, counterValue(t, reg, "clocktrack_db_errors_total", nil))

	_ = p.ObserveDB("time_entries.insert", func() error {
		return &pgconn.PgError{Code: "23503", ConstraintName: "time_entries_user_id_fkey"}
	})
	assert.Equal(t, 1.0, counterValue(t, reg, "clocktrack_db_errors_total", map[string]string{
		"op":    "time_entries.insert",
		"class": "foreign_key_violation",
	}))
}
