package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"docsign/internal/domain/signatures"
)

type signatureRepo struct {
	mu     sync.RWMutex
	byUser map[string][]signatures.Signature
}

func NewSignatureRepo() signatures.Repository {
	return &signatureRepo{
		byUser: make(map[string][]signatures.Signature),
	}
}

func (r *signatureRepo) Create(ctx context.Context, s signatures.Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.UserID) == "" {
		return errors.New("signature id and user required")
	}
	r.byUser[s.UserID] = append(r.byUser[s.UserID], s)
	return nil
}

func (r *signatureRepo) ListByUser(ctx context.Context, userID string) ([]signatures.Signature, error) {
	r.mu.RLock()
	out := append(make([]signatures.Signature, 0), r.byUser[userID]...)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SignedAt.After(out[j].SignedAt)
	})
	return out, nil
}
