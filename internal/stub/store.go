package stub

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tyforge/client/internal/models"
)

var (
	errNotFound = errors.New("not found")
	errConflict = errors.New("already exists")
)

// maxIdeaGenerations is the per-student cap reported by the quota endpoint.
const maxIdeaGenerations = 50

type account struct {
	user models.User
	hash []byte
}

type file struct {
	name        string
	contentType string
	data        []byte
}

// Store is the in-memory data set behind the stand-in.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	accounts  map[string]*account // by id
	byEmail   map[string]string
	plans     []models.Plan
	projects  []*models.Project
	orders    []*models.Order
	synopses  []*models.Synopsis
	meetings  []*models.Meeting
	requests  []*models.AdminRequest
	ideas     []*models.IdeaSubmission
	synFiles  map[string]file
	proofs    map[string]file
	archives  map[string]file // by user id
	blackbook *file
}

// NewStore returns a store holding the default plans.
func NewStore() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		accounts: make(map[string]*account),
		byEmail:  make(map[string]string),
		plans: []models.Plan{
			{ID: "basic", Name: "Basic", Price: 1499, Description: "Perfect for getting started with your project"},
			{ID: "standard", Name: "Standard", Price: 5000, Description: "Most popular - Complete project support"},
			{ID: "premium", Name: "Premium", Price: 9999, Description: "Ultimate solution with everything included"},
		},
		synFiles: make(map[string]file),
		proofs:   make(map[string]file),
		archives: make(map[string]file),
	}
}

// CreateUser registers an account with a bcrypt hashed password.
func (s *Store) CreateUser(email, password, name, phone string, admin bool) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return models.User{}, errConflict
	}
	u := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		IsAdmin:   admin,
		CreatedAt: s.now(),
	}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	s.byEmail[email] = u.ID
	return u, nil
}

// Authenticate checks a password. Unknown emails and wrong passwords are
// indistinguishable.
func (s *Store) Authenticate(email, password string) (models.User, bool) {
	s.mu.RLock()
	id, ok := s.byEmail[strings.TrimSpace(strings.ToLower(email))]
	var acct *account
	if ok {
		acct = s.accounts[id]
	}
	s.mu.RUnlock()
	if acct == nil {
		return models.User{}, false
	}
	if bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return models.User{}, false
	}
	return acct.user, true
}

func (s *Store) user(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return models.User{}, false
	}
	return acct.user, true
}

func (s *Store) updateUser(id string, fn func(*models.User)) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return models.User{}, errNotFound
	}
	fn(&acct.user)
	return acct.user, nil
}

func (s *Store) users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// deleteUser removes an account and everything it owns.
func (s *Store) deleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return errNotFound
	}
	delete(s.accounts, id)
	delete(s.byEmail, acct.user.Email)
	delete(s.archives, id)
	s.projects = without(s.projects, func(p *models.Project) bool { return p.UserID == id })
	s.orders = without(s.orders, func(o *models.Order) bool { return o.UserID == id })
	s.synopses = without(s.synopses, func(sy *models.Synopsis) bool { return sy.UserID == id })
	s.meetings = without(s.meetings, func(m *models.Meeting) bool { return m.UserID == id })
	s.requests = without(s.requests, func(r *models.AdminRequest) bool { return r.UserID == id })
	return nil
}

func without[T any](items []*T, drop func(*T) bool) []*T {
	out := items[:0]
	for _, it := range items {
		if !drop(it) {
			out = append(out, it)
		}
	}
	return out
}

// copies returns value copies of the items kept by keep, newest first.
func copies[T any](items []*T, keep func(*T) bool, created func(*T) time.Time) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep == nil || keep(it) {
			out = append(out, *it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return created(&out[i]).After(created(&out[j])) })
	return out
}

func find[T any](items []*T, match func(*T) bool) (*T, bool) {
	for _, it := range items {
		if match(it) {
			return it, true
		}
	}
	return nil, false
}

// hasCompletedOrder reports whether userID has a verified payment. Callers hold mu.
func (s *Store) hasCompletedOrder(userID string) bool {
	_, ok := find(s.orders, func(o *models.Order) bool { return o.UserID == userID && o.Status == models.OrderCompleted })
	return ok
}

// AddIdea records a generated idea. There is no generation endpoint in the
// stand-in, so seeding and tests add them directly.
func (s *Store) AddIdea(idea models.IdeaSubmission) models.IdeaSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	if idea.CreatedAt.IsZero() {
		idea.CreatedAt = s.now()
	}
	if idea.GenerationCount == 0 {
		idea.GenerationCount = 1
	}
	s.ideas = append(s.ideas, &idea)
	return idea
}

// SetBlackbook installs the final report served by /api/blackbook/download.
func (s *Store) SetBlackbook(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blackbook = &file{name: name, contentType: "application/pdf", data: data}
}

func (s *Store) ideaCount(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, idea := range s.ideas {
		if idea.UserID != nil && *idea.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Store) stats() models.AdminStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := models.AdminStats{
		TotalUsers:    len(s.accounts),
		TotalProjects: len(s.projects),
		TotalOrders:   len(s.orders),
	}
	for _, sy := range s.synopses {
		if sy.Status == models.SynopsisPending {
			st.PendingSynopsis++
		}
	}
	for _, r := range s.requests {
		if r.Status == models.RequestPending {
			st.PendingRequests++
		}
	}
	return st
}
