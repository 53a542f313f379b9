package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"afc-report-backend/internal/queue"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func subscriptionRows(endpoints ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"})
	for _, e := range endpoints {
		rows.AddRow(e, "test_p256dh", "test_auth", time.Now())
	}
	return rows
}

func TestWorkerPool_Notify(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	wp.Notify(context.Background(), queue.SyncResult{Attempted: 2, Synced: 2})

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, 2, job.Synced)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_NotifyNeverBlocks(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			wp.Notify(context.Background(), queue.SyncResult{Attempted: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked with no workers running")
	}
	assert.Len(t, wp.Jobs(), 1)
}

func TestDescribe(t *testing.T) {
	testCases := []struct {
		name string
		res  queue.SyncResult
		want string
	}{
		{name: "All synced", res: queue.SyncResult{Attempted: 3, Synced: 3}, want: "3 report(s) synced to Google Sheets"},
		{name: "All failed", res: queue.SyncResult{Attempted: 2, Failed: 2, Remaining: 2}, want: "2 report(s) failed to sync, will retry (2 pending)"},
		{name: "Mixed", res: queue.SyncResult{Attempted: 3, Synced: 2, Failed: 1, Remaining: 1}, want: "2 report(s) synced, 1 failed and will retry (1 pending)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := Describe(tc.res)
			assert.Equal(t, "AFC Reports", msg.Title)
			assert.Equal(t, tc.want, msg.Body)
		})
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends the sync result to every subscriber", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(2)

		var mu sync.Mutex
		seen := []string{}
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				var msg Message
				assert.NoError(t, json.Unmarshal(payload, &msg))
				assert.Equal(t, 4, msg.Result.Synced)
				mu.Lock()
				seen = append(seen, sub.Endpoint)
				mu.Unlock()
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(subscriptionRows("https://example.com/a", "https://example.com/b"))

		wp.Notify(ctx, queue.SyncResult{Attempted: 4, Synced: 4})
		wg.Wait()
		assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, seen)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
			WillReturnRows(subscriptionRows("https://example.com/expired"))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Notify(ctx, queue.SyncResult{Attempted: 1, Failed: 1, Remaining: 1})

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})
}
