package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is an in-memory Store used by tests and local development.
// All methods are safe for concurrent use.
type memoryStore struct {
	mu sync.Mutex

	sessions map[string]Session
	albums   map[uuid.UUID]Album
	classes  map[uuid.UUID]Class
	invites  map[string]InviteToken
	requests map[uuid.UUID]AccessRequest
	members  map[uuid.UUID][]Member
	limits   map[uuid.UUID]*int64
	assets   map[uuid.UUID]MediaAsset
	leads    map[uuid.UUID]Lead
	packages map[uuid.UUID]Package
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *memoryStore {
	return &memoryStore{
		sessions: map[string]Session{},
		albums:   map[uuid.UUID]Album{},
		classes:  map[uuid.UUID]Class{},
		invites:  map[string]InviteToken{},
		requests: map[uuid.UUID]AccessRequest{},
		members:  map[uuid.UUID][]Member{},
		limits:   map[uuid.UUID]*int64{},
		assets:   map[uuid.UUID]MediaAsset{},
		leads:    map[uuid.UUID]Lead{},
		packages: map[uuid.UUID]Package{},
	}
}

// PutSession registers a session for auth in tests.
func (s *memoryStore) PutSession(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
}

// PutClass seeds a class directly.
func (s *memoryStore) PutClass(class Class) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[class.ID] = class
}

// PutAlbum seeds an album directly.
func (s *memoryStore) PutAlbum(album Album) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albums[album.ID] = album
}

// PutInvite seeds an invite token directly.
func (s *memoryStore) PutInvite(invite InviteToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[invite.Token] = invite
}

// SetJoinLimit configures the member limit for an album. A nil limit means
// unlimited.
func (s *memoryStore) SetJoinLimit(albumID uuid.UUID, limit *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits[albumID] = limit
}

func (s *memoryStore) GetSessionByToken(_ context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrSessionInvalid
	}
	return sess, nil
}

func (s *memoryStore) CreateAlbum(_ context.Context, album Album) (Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if album.ID == uuid.Nil {
		album.ID = uuid.New()
	}
	now := time.Now().UTC()
	album.CreatedAt = now
	album.UpdatedAt = now
	s.albums[album.ID] = album
	return album, nil
}

func (s *memoryStore) GetAlbum(_ context.Context, id uuid.UUID) (Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	album, ok := s.albums[id]
	if !ok {
		return Album{}, ErrAlbumNotFound
	}
	return album, nil
}

func (s *memoryStore) ListAlbumsByOwner(_ context.Context, ownerID uuid.UUID) ([]Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Album
	for _, album := range s.albums {
		if album.OwnerID == ownerID {
			out = append(out, album)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) GetClass(_ context.Context, id uuid.UUID) (Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	class, ok := s.classes[id]
	if !ok {
		return Class{}, ErrClassNotFound
	}
	return class, nil
}

func (s *memoryStore) CreateInvite(_ context.Context, invite InviteToken) (InviteToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if invite.ID == uuid.Nil {
		invite.ID = uuid.New()
	}
	invite.CreatedAt = time.Now().UTC()
	s.invites[invite.Token] = invite
	return invite, nil
}

func (s *memoryStore) GetInviteByToken(_ context.Context, token string) (InviteToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invite, ok := s.invites[token]
	if !ok {
		return InviteToken{}, ErrInviteNotFound
	}
	return invite, nil
}

func (s *memoryStore) CreateRequest(_ context.Context, req AccessRequest) (AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.ClassID == req.ClassID && existing.UserID == req.UserID {
			return AccessRequest{}, ErrDuplicateRequest
		}
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now().UTC()
	s.requests[req.ID] = req
	return req, nil
}

func (s *memoryStore) UpdateRequest(_ context.Context, req AccessRequest) (AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.requests[req.ID]
	if !ok {
		return AccessRequest{}, ErrRequestNotFound
	}
	existing.DisplayName = req.DisplayName
	existing.Email = req.Email
	existing.Status = req.Status
	existing.RespondedAt = req.RespondedAt
	s.requests[req.ID] = existing
	return existing, nil
}

func (s *memoryStore) GetRequest(_ context.Context, id uuid.UUID) (AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return AccessRequest{}, ErrRequestNotFound
	}
	return req, nil
}

func (s *memoryStore) GetRequestByClassAndUser(_ context.Context, classID, userID uuid.UUID) (AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.ClassID == classID && req.UserID == userID {
			return req, nil
		}
	}
	return AccessRequest{}, ErrRequestNotFound
}

func (s *memoryStore) AddMember(_ context.Context, member Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	member.CreatedAt = time.Now().UTC()
	s.members[member.AlbumID] = append(s.members[member.AlbumID], member)
	return nil
}

func (s *memoryStore) ListMembers(_ context.Context, albumID uuid.UUID) ([]Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Member, len(s.members[albumID]))
	copy(out, s.members[albumID])
	return out, nil
}

func (s *memoryStore) GetJoinStats(_ context.Context, albumID uuid.UUID) (JoinStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var approved, pending, rejected int64
	for _, req := range s.requests {
		if req.AlbumID != albumID {
			continue
		}
		switch req.Status {
		case RequestStatusApproved:
			approved++
		case RequestStatusPending:
			pending++
		case RequestStatusRejected:
			rejected++
		}
	}
	return computeJoinStats(s.limits[albumID], approved, pending, rejected), nil
}

func (s *memoryStore) CreateMediaAsset(_ context.Context, asset MediaAsset) (MediaAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	asset.CreatedAt = time.Now().UTC()
	s.assets[asset.ID] = asset
	return asset, nil
}

func (s *memoryStore) GetMediaAsset(_ context.Context, id uuid.UUID) (MediaAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.assets[id]
	if !ok {
		return MediaAsset{}, ErrNotFound
	}
	return asset, nil
}

func (s *memoryStore) ListMediaAssets(_ context.Context, albumID uuid.UUID) ([]MediaAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []MediaAsset
	for _, asset := range s.assets {
		if asset.AlbumID == albumID {
			out = append(out, asset)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryStore) CreateLead(_ context.Context, lead Lead) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	lead.CreatedAt = time.Now().UTC()
	s.leads[lead.ID] = lead
	return lead, nil
}

func (s *memoryStore) ListPackages(_ context.Context) ([]Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Package
	for _, pkg := range s.packages {
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	return out, nil
}

// PutPackage seeds a package directly.
func (s *memoryStore) PutPackage(pkg Package) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages[pkg.ID] = pkg
}
