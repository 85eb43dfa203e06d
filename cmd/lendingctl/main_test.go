package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/notify"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
)

var loanDate = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func Test_Migrate_Is_Idempotent(t *testing.T) {
	// arrange
	givenSQLiteEnv(t)

	// act
	_, err1 := execute(t, "migrate")
	_, err2 := execute(t, "migrate")

	// assert
	assert.NoError(t, err1)
	assert.NoError(t, err2)
}

func Test_OverdueNotify_Writes_One_JSON_Line_Per_Overdue_Loan(t *testing.T) {
	// arrange
	givenSQLiteEnv(t)
	_, err := execute(t, "migrate")
	require.NoError(t, err, "error in arranging test data")
	givenBorrowedBooks(t, 2)

	// act
	out, err := execute(t, "overdue", "notify", "--date", "2026-03-23")

	// assert
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	for _, line := range lines {
		var msg notify.Message
		require.NoError(t, jsoniter.ConfigFastest.Unmarshal([]byte(line), &msg))
		assert.Equal(t, notify.KindOverdue, msg.Kind)
		assert.Equal(t, 7, msg.Days)
	}
}

func Test_OverdueList_Prints_Days_And_Fee(t *testing.T) {
	// arrange
	givenSQLiteEnv(t)
	_, err := execute(t, "migrate")
	require.NoError(t, err, "error in arranging test data")
	givenBorrowedBooks(t, 1)

	// act
	out, err := execute(t, "overdue", "list", "--date", "2026-03-23")

	// assert
	require.NoError(t, err)
	assert.Contains(t, out, helper.FixtureISBN(1))
	assert.Contains(t, out, "due 2026-03-16")
	assert.Contains(t, out, "7 day(s)")
	assert.Contains(t, out, "fee 700")
}

func Test_Reminders_Skips_Loans_Not_Due_Soon(t *testing.T) {
	// arrange
	givenSQLiteEnv(t)
	_, err := execute(t, "migrate")
	require.NoError(t, err, "error in arranging test data")
	givenBorrowedBooks(t, 1)

	// act
	early, err1 := execute(t, "reminders", "--date", "2026-03-05", "--within", "3")
	soon, err2 := execute(t, "reminders", "--date", "2026-03-14", "--within", "3")

	// assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Empty(t, strings.TrimSpace(early))
	assert.Contains(t, soon, notify.KindDueDateReminder)
}

func Test_Sweep_Sends_Overdue_Notifications_And_Reminders(t *testing.T) {
	// arrange
	givenSQLiteEnv(t)
	_, err := execute(t, "migrate")
	require.NoError(t, err, "error in arranging test data")
	givenBorrowedBooks(t, 1)

	// act
	out, err := execute(t, "sweep", "--date", "2026-03-20")

	// assert
	require.NoError(t, err)
	assert.Contains(t, out, notify.KindOverdue)
	assert.NotContains(t, out, notify.KindDueDateReminder)
}

func Test_Fee_Fails_For_Book_Without_Active_Loan(t *testing.T) {
	// arrange
	givenSQLiteEnv(t)
	_, err := execute(t, "migrate")
	require.NoError(t, err, "error in arranging test data")

	// act
	_, err = execute(t, "fee", "--isbn", helper.FixtureISBN(9), "--date", "2026-03-23")

	// assert
	assert.ErrorIs(t, err, lending.ErrNoActiveLoan)
}

func Test_Invalid_Date_Is_Rejected(t *testing.T) {
	// arrange
	givenSQLiteEnv(t)

	// act
	_, err := execute(t, "overdue", "list", "--date", "23.03.2026")

	// assert
	assert.ErrorContains(t, err, "invalid date")
}

func Test_Unknown_Notify_Sink_Is_Rejected(t *testing.T) {
	// arrange
	givenSQLiteEnv(t)

	// act
	_, err := execute(t, "--notify-sink", "carrier-pigeon", "overdue", "notify")

	// assert
	assert.ErrorContains(t, err, "unknown notification sink")
}

func givenSQLiteEnv(t *testing.T) {
	t.Helper()

	t.Setenv("LENDING_DB_DRIVER", config.DriverSQLite)
	t.Setenv("LENDING_DB_DSN", "file:"+filepath.Join(t.TempDir(), "lending.db"))
	t.Setenv("LENDING_LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())

	return stdout.String(), err
}

// givenBorrowedBooks lends n books to n members on loanDate, using the default policy.
func givenBorrowedBooks(t *testing.T, n int) {
	t.Helper()

	ctx := context.Background()
	cfg, err := config.LoadFromEnv()
	require.NoError(t, err, "error in arranging test data")

	store, closeDB, err := cfg.OpenStore(ctx)
	require.NoError(t, err, "error in arranging test data")
	defer closeDB()

	service, err := library.NewLibraryService(store.Books(), store.Members(), store.Loans(),
		library.WithTransactor(store))
	require.NoError(t, err, "error in arranging test data")

	for i := 1; i <= n; i++ {
		_, err = service.RegisterBook(ctx, "Patterns, Principles, and Practices", "Scott Millett", helper.FixtureISBN(i))
		require.NoError(t, err, "error in arranging test data")

		_, err = service.RegisterMember(ctx, helper.FixtureMemberID(i), "Reader")
		require.NoError(t, err, "error in arranging test data")

		_, err = service.BorrowBook(ctx, helper.FixtureISBN(i), helper.FixtureMemberID(i), loanDate)
		require.NoError(t, err, "error in arranging test data")
	}
}
