package safety

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/storage"
)

func TestRewrite(t *testing.T) {
	guard := NewGuard(nil, 0)

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{
			name:      "no trailing clause appends WHERE",
			candidate: "SELECT * FROM transactions",
			want:      "SELECT * FROM transactions WHERE user_id = 'user_42'",
		},
		{
			name:      "scope injected before GROUP BY",
			candidate: "SELECT category, SUM(amount) FROM transactions GROUP BY category",
			want:      "SELECT category, SUM(amount) FROM transactions WHERE user_id = 'user_42' GROUP BY category",
		},
		{
			name:      "existing WHERE gets scope AND-ed in",
			candidate: "SELECT * FROM transactions WHERE amount < 0",
			want:      "SELECT * FROM transactions WHERE user_id = 'user_42' AND amount < 0",
		},
		{
			name:      "alias is used for the scope column",
			candidate: "SELECT t.date FROM transactions t WHERE t.amount < 0",
			want:      "SELECT t.date FROM transactions t WHERE t.user_id = 'user_42' AND t.amount < 0",
		},
		{
			name:      "AS alias",
			candidate: "SELECT x.date FROM transactions AS x ORDER BY x.date",
			want:      "SELECT x.date FROM transactions AS x WHERE x.user_id = 'user_42' ORDER BY x.date",
		},
		{
			name:      "scope injected before ORDER BY",
			candidate: "SELECT date, amount FROM transactions ORDER BY date DESC LIMIT 10",
			want:      "SELECT date, amount FROM transactions WHERE user_id = 'user_42' ORDER BY date DESC LIMIT 10",
		},
		{
			name:      "trailing semicolon stripped",
			candidate: "SELECT * FROM transactions;",
			want:      "SELECT * FROM transactions WHERE user_id = 'user_42'",
		},
		{
			name:      "statement without the scoped table passes through",
			candidate: "SELECT 1",
			want:      "SELECT 1",
		},
		{
			name:      "forbidden word inside a string literal is fine",
			candidate: "SELECT * FROM transactions WHERE description = 'DROP'",
			want:      "SELECT * FROM transactions WHERE user_id = 'user_42' AND description = 'DROP'",
		},
		{
			name:      "double-quoted table name is scoped",
			candidate: `SELECT description FROM "transactions"`,
			want:      `SELECT description FROM "transactions" WHERE user_id = 'user_42'`,
		},
		{
			name:      "schema-qualified table name is scoped",
			candidate: "SELECT description FROM main.transactions",
			want:      "SELECT description FROM main.transactions WHERE user_id = 'user_42'",
		},
		{
			name:      "quoted table name with alias",
			candidate: `SELECT t.date FROM "transactions" t WHERE t.amount < 0`,
			want:      `SELECT t.date FROM "transactions" t WHERE t.user_id = 'user_42' AND t.amount < 0`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := guard.Rewrite("user_42", tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRewriteRejections(t *testing.T) {
	guard := NewGuard(nil, 0)

	tests := []struct {
		name      string
		candidate string
	}{
		{name: "update statement", candidate: "UPDATE transactions SET amount = 0"},
		{name: "delete statement", candidate: "DELETE FROM transactions"},
		{name: "drop statement", candidate: "DROP TABLE transactions"},
		{name: "pragma", candidate: "PRAGMA user_version"},
		{name: "multiple statements", candidate: "SELECT 1; DROP TABLE transactions"},
		{name: "forbidden keyword in subquery", candidate: "SELECT * FROM transactions WHERE id IN (DELETE FROM transactions)"},
		{name: "line comment", candidate: "SELECT * FROM transactions -- sneaky"},
		{name: "block comment", candidate: "SELECT /* hidden */ * FROM transactions"},
		{name: "CTE cannot be scoped", candidate: "WITH t AS (SELECT * FROM transactions) SELECT * FROM t"},
		{name: "self join cannot be scoped", candidate: "SELECT * FROM transactions a JOIN transactions b ON a.id = b.id"},
		{name: "subquery second reference cannot be scoped", candidate: "SELECT * FROM transactions WHERE amount > (SELECT AVG(amount) FROM transactions)"},
		{name: "unterminated string", candidate: "SELECT * FROM transactions WHERE description = 'oops"},
		{name: "unbalanced parens", candidate: "SELECT * FROM transactions WHERE (amount < 0"},
		{name: "empty statement", candidate: "   "},
		{name: "backtick-quoted table name", candidate: "SELECT * FROM `transactions`"},
		{name: "bracket-quoted table name", candidate: "SELECT * FROM [transactions]"},
		{name: "table name as quoted alias", candidate: `SELECT COUNT(*) AS "transactions" FROM transactions`},
		{name: "table name as column qualifier", candidate: "SELECT transactions.date FROM transactions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := guard.Rewrite("user_42", tt.candidate)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrUnsafeQuery)
		})
	}
}

func TestRewriteRejectsBadScopeValue(t *testing.T) {
	guard := NewGuard(nil, 0)

	for _, scope := range []string{"", "user'; DROP TABLE transactions", "user 42", "a;b"} {
		_, err := guard.Rewrite(scope, "SELECT * FROM transactions")
		require.Error(t, err, "scope %q must be rejected", scope)
		assert.ErrorIs(t, err, common.ErrUnsafeQuery)
	}
}

func TestExecuteScopesToOneUser(t *testing.T) {
	ctx := context.Background()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, db.Migrate(ctx))

	date, err := time.Parse("2006-01-02", "2025-06-15")
	require.NoError(t, err)

	require.NoError(t, db.SaveTransactions(ctx, "alice", []model.Transaction{
		{ID: "a1", Date: date, Description: "ALICE GROCERIES", Amount: -50},
		{ID: "a2", Date: date, Description: "ALICE RENT", Amount: -1200},
	}))
	require.NoError(t, db.SaveTransactions(ctx, "bob", []model.Transaction{
		{ID: "b1", Date: date, Description: "BOB SECRET PURCHASE", Amount: -999},
	}))

	guard := NewGuard(db, 0)

	rows, err := guard.Execute(ctx, "alice", "SELECT description FROM transactions ORDER BY description")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotContains(t, row["description"], "BOB")
	}

	// Even a query that tries to see everything stays inside the scope.
	rows, err = guard.Execute(ctx, "bob", "SELECT COUNT(*) AS n FROM transactions")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0]["n"])

	// Quoted and schema-qualified spellings of the table name must not
	// bypass the scope.
	for _, candidate := range []string{
		`SELECT description FROM "transactions" ORDER BY description`,
		"SELECT description FROM main.transactions ORDER BY description",
	} {
		rows, err = guard.Execute(ctx, "alice", candidate)
		require.NoError(t, err, "candidate %q", candidate)
		require.Len(t, rows, 2, "candidate %q", candidate)
		for _, row := range rows {
			assert.NotContains(t, row["description"], "BOB", "candidate %q", candidate)
		}
	}
}

func TestExecuteCapsRows(t *testing.T) {
	ctx := context.Background()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, db.Migrate(ctx))

	date, err := time.Parse("2006-01-02", "2025-06-15")
	require.NoError(t, err)

	txns := make([]model.Transaction, 10)
	for i := range txns {
		txns[i] = model.Transaction{
			ID:          string(rune('a' + i)),
			Date:        date.AddDate(0, 0, i),
			Description: "TXN",
			Amount:      float64(-i - 1),
		}
	}
	require.NoError(t, db.SaveTransactions(ctx, "alice", txns))

	guard := NewGuard(db, 3)
	rows, err := guard.Execute(ctx, "alice", "SELECT id FROM transactions")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
