package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/peopledb/peopledb/pkg/middleware"
	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "peopledb:revoked:"

// ErrRevoked is returned by a revoking verifier for a token on the list.
var ErrRevoked = errors.New("tokens: token revoked")

// Revocations is a Redis-backed list of withdrawn bearer tokens. A nil
// client turns every call into a no-op.
type Revocations struct {
	rdb *redis.Client
}

func NewRevocations(rdb *redis.Client) *Revocations {
	return &Revocations{rdb: rdb}
}

// Revoke records raw until ttl elapses. Non-positive ttl is ignored since the
// token has already expired.
func (r *Revocations) Revoke(ctx context.Context, raw string, ttl time.Duration) error {
	if r == nil || r.rdb == nil || ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedPrefix+raw, "1", ttl).Err()
}

func (r *Revocations) IsRevoked(ctx context.Context, raw string) (bool, error) {
	if r == nil || r.rdb == nil {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, revokedPrefix+raw).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Revoking wraps ver so tokens on the list fail verification.
func Revoking(ver middleware.Verifier, rev *Revocations) middleware.Verifier {
	if ver == nil || rev == nil || rev.rdb == nil {
		return ver
	}
	return &revokingVerifier{next: ver, rev: rev}
}

type revokingVerifier struct {
	next middleware.Verifier
	rev  *Revocations
}

func (v *revokingVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	revoked, err := v.rev.IsRevoked(ctx, raw)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}
	return v.next.Verify(ctx, raw)
}

// RemainingTTL returns how long a token with the given claims stays valid.
func RemainingTTL(claims map[string]interface{}, now time.Time) time.Duration {
	exp, ok := claims["exp"].(float64)
	if !ok {
		return 0
	}
	return time.Unix(int64(exp), 0).Sub(now)
}
