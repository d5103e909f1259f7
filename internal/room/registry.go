// internal/room/registry.go
package room

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/beergame/internal/auth"
	"github.com/jason-s-yu/beergame/internal/game"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxNameLength caps display names, counted in runes.
	MaxNameLength = 40

	codeBytes    = 3 // 6 hex characters
	codeAttempts = 16
)

// Identity is what a token resolves to.
type Identity struct {
	ParticipantID uuid.UUID
	Name          string
	Role          game.Role
	IsAdmin       bool
	RoomCode      string
}

// Participant returns the session-level view of the identity.
func (id Identity) Participant() game.Participant {
	return game.Participant{ID: id.ParticipantID, Name: id.Name, Role: id.Role, IsAdmin: id.IsAdmin}
}

// CreateOptions configures a new room. An empty Role creates an admin who does not play.
type CreateOptions struct {
	Name       string
	Role       string
	Passphrase string
	AutoStart  bool
	Settings   map[string]interface{}
}

// Ticket is handed back to a client that created, joined or reclaimed a room.
type Ticket struct {
	GameID   uuid.UUID `json:"gameId"`
	RoomCode string    `json:"roomCode"`
	Token    string    `json:"token"`
	Team     game.Role `json:"team,omitempty"`
	IsAdmin  bool      `json:"isAdmin"`
}

type entry struct {
	session *game.Session
	admin   Identity
	// passphraseHash is empty when the room cannot be reclaimed.
	passphraseHash string
}

// Registry owns every room of the process. Rooms live until the process exits.
//
// The registry lock only guards its maps; game state is protected by each session's own
// lock, so rooms never contend with each other.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*entry
	tokens map[string]Identity

	issuer    *auth.Issuer
	defaults  game.Settings
	listeners []func(game.GameEvent)

	// randRead fills room code bytes.
	randRead func(b []byte) (int, error)
}

// NewRegistry returns an empty registry issuing tokens with issuer. New rooms start from
// defaults before per-room overrides are applied.
func NewRegistry(issuer *auth.Issuer, defaults game.Settings) *Registry {
	return &Registry{
		rooms:    make(map[string]*entry),
		tokens:   make(map[string]Identity),
		issuer:   issuer,
		defaults: defaults.Clone(),
		randRead: rand.Read,
	}
}

// Subscribe registers fn for the events of every room created afterwards. fn runs with the
// session lock held and must not block.
func (r *Registry) Subscribe(fn func(game.GameEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// CreateRoom opens a room in the waiting phase and returns the creator's ticket.
// The creator is always the room admin; with a Role they also occupy that team.
func (r *Registry) CreateRoom(opts CreateOptions) (Ticket, error) {
	settings, err := game.ParseSettings(opts.Settings, r.defaults)
	if err != nil {
		return Ticket{}, err
	}

	var role game.Role
	if strings.TrimSpace(opts.Role) != "" {
		if role, err = game.ParseRole(opts.Role); err != nil {
			return Ticket{}, err
		}
	}

	var hash string
	if opts.Passphrase != "" {
		if hash, err = auth.HashPassphrase(opts.Passphrase, auth.DefaultHashParams); err != nil {
			return Ticket{}, err
		}
	}

	admin := Identity{
		ParticipantID: uuid.New(),
		Name:          SanitizeName(opts.Name, "Admin"),
		Role:          role,
		IsAdmin:       true,
	}

	r.mu.Lock()
	code, err := r.newCodeLocked()
	if err != nil {
		r.mu.Unlock()
		return Ticket{}, err
	}
	admin.RoomCode = code

	sess := game.NewSession(code, settings)
	sess.AutoStart = opts.AutoStart && role != ""
	listeners := slices.Clone(r.listeners)
	sess.BroadcastFn = func(ev game.GameEvent) {
		for _, fn := range listeners {
			fn(ev)
		}
	}
	r.rooms[code] = &entry{session: sess, admin: admin, passphraseHash: hash}
	r.mu.Unlock()

	// a fresh session accepts any valid role
	if err := sess.AddParticipant(admin.Participant()); err != nil {
		return Ticket{}, err
	}

	log.WithFields(log.Fields{"room": code, "game": sess.ID, "role": role}).Info("room created")
	return r.issue(sess, admin)
}

// JoinRoom claims role in the room with roomCode. Codes are case-insensitive.
func (r *Registry) JoinRoom(roomCode, name, role string) (Ticket, error) {
	ent, err := r.lookup(roomCode)
	if err != nil {
		return Ticket{}, err
	}
	parsed, err := game.ParseRole(role)
	if err != nil {
		return Ticket{}, err
	}

	id := Identity{
		ParticipantID: uuid.New(),
		Name:          SanitizeName(name, "Player"),
		Role:          parsed,
		RoomCode:      ent.session.RoomCode,
	}
	if err := ent.session.AddParticipant(id.Participant()); err != nil {
		return Ticket{}, err
	}
	return r.issue(ent.session, id)
}

// ReclaimAdmin issues a new token for the room admin when passphrase matches the one the
// room was created with.
func (r *Registry) ReclaimAdmin(roomCode, passphrase string) (Ticket, error) {
	ent, err := r.lookup(roomCode)
	if err != nil {
		return Ticket{}, err
	}
	if ent.passphraseHash == "" || passphrase == "" {
		return Ticket{}, game.Errorf(game.KindUnauthorized, "room cannot be reclaimed")
	}
	ok, err := auth.ComparePassphrase(passphrase, ent.passphraseHash)
	if err != nil {
		return Ticket{}, err
	}
	if !ok {
		return Ticket{}, game.Errorf(game.KindUnauthorized, "wrong passphrase")
	}
	log.WithField("room", ent.session.RoomCode).Info("admin reclaimed room")
	return r.issue(ent.session, ent.admin)
}

// ResolveToken maps a bearer token to its session and identity.
func (r *Registry) ResolveToken(token string) (*game.Session, Identity, error) {
	if token == "" {
		return nil, Identity{}, game.Errorf(game.KindUnauthorized, "missing token")
	}
	if _, err := r.issuer.AuthenticateJWT(token); err != nil {
		return nil, Identity{}, game.Errorf(game.KindUnauthorized, "invalid token")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.tokens[token]
	if !ok {
		return nil, Identity{}, game.Errorf(game.KindUnauthorized, "unknown token")
	}
	ent, ok := r.rooms[id.RoomCode]
	if !ok {
		return nil, Identity{}, game.ErrRoomNotFound
	}
	return ent.session, id, nil
}

// AllTeamsJoined reports whether every role of s is occupied.
func (r *Registry) AllTeamsJoined(s *game.Session) bool {
	return s.AllTeamsJoined()
}

// Len returns the number of open rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) lookup(roomCode string) (*entry, error) {
	code := NormalizeCode(roomCode)
	r.mu.RLock()
	defer r.mu.RUnlock()
	ent, ok := r.rooms[code]
	if !ok {
		return nil, game.Errorf(game.KindRoomNotFound, "room %q not found", code)
	}
	return ent, nil
}

func (r *Registry) issue(s *game.Session, id Identity) (Ticket, error) {
	token, err := r.issuer.CreateJWT(id.ParticipantID.String(), id.RoomCode)
	if err != nil {
		return Ticket{}, err
	}
	r.mu.Lock()
	r.tokens[token] = id
	r.mu.Unlock()
	return Ticket{GameID: s.ID, RoomCode: s.RoomCode, Token: token, Team: id.Role, IsAdmin: id.IsAdmin}, nil
}

// newCodeLocked draws unused codes until one is free. Assumes lock is held.
func (r *Registry) newCodeLocked() (string, error) {
	buf := make([]byte, codeBytes)
	for i := 0; i < codeAttempts; i++ {
		if _, err := r.randRead(buf); err != nil {
			return "", err
		}
		code := strings.ToUpper(hex.EncodeToString(buf))
		if _, taken := r.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free room code after %d attempts", codeAttempts)
}

// NormalizeCode trims and upper-cases a client supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SanitizeName trims name and caps it at MaxNameLength runes, falling back to def.
func SanitizeName(name, def string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return def
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
	}
	return name
}
