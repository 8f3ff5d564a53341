package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

const confirmPurpose = "confirm"

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// StaffClaims are carried by staff access tokens.  The subject is the staff
// id; the remaining claims rebuild the request scope without a DB lookup.
type StaffClaims struct {
	StoreID   int64  `json:"store_id"`
	StaffName string `json:"name"`
	Admin     bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Scope converts validated claims into the request scope.
func (c *StaffClaims) Scope() (model.StoreScope, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 || c.StoreID <= 0 {
		return model.StoreScope{}, errors.New("token: malformed staff claims")
	}
	return model.StoreScope{StoreID: c.StoreID, StaffID: id, StaffName: c.StaffName, Admin: c.Admin}, nil
}

// NewAccessToken builds and signs an HS256 JWT for a staff member.  ttlMin
// is the lifetime in minutes.
func NewAccessToken(secret string, s model.Staff, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := StaffClaims{
		StoreID:   s.StoreID,
		StaffName: s.Name,
		Admin:     s.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.ID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates signature, algorithm and expiry.
func ParseAccessToken(secret, raw string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, hmacKey(secret), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("token: invalid")
	}
	return claims, nil
}

// NewConfirmToken signs the booking id embedded in staff confirmation
// links, so a link cannot be forged for another booking.
func NewConfirmToken(secret string, bookingID int64, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(bookingID, 10),
		"pur": confirmPurpose,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseConfirmToken returns the booking id of a confirmation link token.
func ParseConfirmToken(secret, raw string) (int64, error) {
	tok, err := jwt.Parse(raw, hmacKey(secret), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid || claims["pur"] != confirmPurpose {
		return 0, errors.New("token: not a confirmation token")
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("token: bad booking id")
	}
	return id, nil
}

func hmacKey(secret string) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("token: unexpected signing method")
		}
		return []byte(secret), nil
	}
}
