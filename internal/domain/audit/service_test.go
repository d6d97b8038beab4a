package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testRepo struct {
	items  []Event
	failOn string
}

func (r *testRepo) Append(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.failOn != "" && e.Action == r.failOn {
		return errors.New("repo: down")
	}
	r.items = append(r.items, e)
	return nil
}

func (r *testRepo) ListByDocument(ctx context.Context, documentID string, filter ListFilter) ([]Event, error) {
	out := make([]Event, 0)
	started := filter.After == ""
	for _, e := range r.items {
		if e.DocumentID != documentID {
			continue
		}
		if !started {
			started = e.ID == filter.After
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func newTestService(repo Repository) *Service {
	s := NewService(repo, nil)
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return s
}

func TestRecord_AppendsInOrder(t *testing.T) {
	repo := &testRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	svc.Record(ctx, Entry{DocumentID: "doc-1", Action: ActionUploaded, ActorID: Actor("u-1"), Detail: "Uploaded from 10.0.0.1", Origin: "10.0.0.1"})
	svc.Record(ctx, Entry{DocumentID: "doc-1", Action: ActionSignedPublic, Detail: "Signed by Guest a@x.com. IP: 10.0.0.2"})
	svc.Record(ctx, Entry{DocumentID: "doc-2", Action: ActionUploaded})

	got, err := svc.List(ctx, "doc-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Action != ActionUploaded || got[1].Action != ActionSignedPublic {
		t.Fatalf("unexpected order: %q, %q", got[0].Action, got[1].Action)
	}
	if !got[0].CreatedAt.Before(got[1].CreatedAt) {
		t.Fatalf("created_at must increase")
	}
	if got[0].ActorID == nil || *got[0].ActorID != "u-1" {
		t.Fatalf("expected actor u-1")
	}
	if got[1].ActorID != nil {
		t.Fatalf("guest events must have nil actor")
	}
}

func TestRecord_SwallowsErrors(t *testing.T) {
	repo := &testRepo{failOn: ActionShared}
	svc := newTestService(repo)

	svc.Record(context.Background(), Entry{DocumentID: "doc-1", Action: ActionShared})

	if len(repo.items) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestRecord_SurvivesCanceledRequest(t *testing.T) {
	repo := &testRepo{}
	svc := newTestService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Record(ctx, Entry{DocumentID: "doc-1", Action: ActionReset})

	if len(repo.items) != 1 {
		t.Fatalf("expected event recorded despite canceled ctx, got %d", len(repo.items))
	}
}

func TestRecord_DropsIncompleteEntries(t *testing.T) {
	repo := &testRepo{}
	svc := newTestService(repo)

	svc.Record(context.Background(), Entry{Action: ActionSigned})
	svc.Record(context.Background(), Entry{DocumentID: "doc-1"})

	if len(repo.items) != 0 {
		t.Fatalf("expected entries dropped, got %d", len(repo.items))
	}
}

func TestListPage(t *testing.T) {
	repo := &testRepo{}
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.Record(ctx, Entry{DocumentID: "doc-1", Action: ActionShared})
	}

	first, err := svc.ListPage(ctx, "doc-1", "", 2)
	if err != nil || len(first) != 2 {
		t.Fatalf("first page: %v len=%d", err, len(first))
	}
	rest, err := svc.ListPage(ctx, "doc-1", first[1].ID, 0)
	if err != nil || len(rest) != 3 {
		t.Fatalf("rest: %v len=%d", err, len(rest))
	}
	if rest[0].ID != repo.items[2].ID {
		t.Fatalf("expected page to continue after cursor")
	}

	if _, err := svc.ListPage(ctx, " ", "", 0); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for blank document, got %v", err)
	}
	if _, err := svc.ListPage(ctx, "doc-1", "", maxPageSize+1); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for oversized limit, got %v", err)
	}
}
