package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Realm separates the two user populations. A token minted for one realm is
// never accepted by the other.
type Realm string

const (
	RealmPatient Realm = "patient"
	RealmStaff   Realm = "staff"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongRealm   = errors.New("token realm mismatch")
)

type Claims struct {
	UserID   string `json:"sub"`
	Realm    Realm  `json:"realm"`
	PhotoKey string `json:"photoKey,omitempty"`
	JTI      string `json:"jti"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret     []byte
	patientTTL time.Duration
	staffTTL   time.Duration
	now        func() time.Time
}

func NewManager(secret string, patientTTL, staffTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		patientTTL: patientTTL,
		staffTTL:   staffTTL,
		now:        time.Now,
	}
}

// GeneratePatientToken binds a session to the patient id and the photo key
// known at login time. The photo key claim goes stale after profile edits.
func (m *Manager) GeneratePatientToken(userID string, photoKey string) (string, time.Time, error) {
	return m.generate(userID, RealmPatient, photoKey, m.patientTTL)
}

// GenerateStaffToken carries only the staff id; the role is read from the
// database on every admin request.
func (m *Manager) GenerateStaffToken(userID string) (string, time.Time, error) {
	return m.generate(userID, RealmStaff, "", m.staffTTL)
}

func (m *Manager) generate(userID string, realm Realm, photoKey string, ttl time.Duration) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := now.Add(ttl)
	jti := uuid.NewString()

	claims := Claims{
		UserID:   userID,
		Realm:    realm,
		PhotoKey: photoKey,
		JTI:      jti,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   userID,
			ID:        jti,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *Manager) ParseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) Verify(tokenStr string, realm Realm) (*Claims, error) {
	claims, err := m.ParseAndValidate(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Realm != realm {
		return nil, ErrWrongRealm
	}
	return claims, nil
}

func (m *Manager) VerifyPatientToken(tokenStr string) (*Claims, error) {
	return m.Verify(tokenStr, RealmPatient)
}

func (m *Manager) VerifyStaffToken(tokenStr string) (*Claims, error) {
	return m.Verify(tokenStr, RealmStaff)
}

// Cookie names carrying the session when no Authorization header is sent.
const (
	PatientCookie = "session"
	StaffCookie   = "syscreju_session"
)

func (r Realm) Cookie() string {
	if r == RealmStaff {
		return StaffCookie
	}
	return PatientCookie
}
