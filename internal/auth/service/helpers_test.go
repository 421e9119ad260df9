package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/cookieauth/internal/auth/domain"
	"github.com/aussiebroadwan/cookieauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// Cheap argon2 so the tests don't crawl
var testHashParams = cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}

func newTestCodec(t *testing.T) *jwtx.Codec {
	t.Helper()
	ks, err := jwtx.NewKeySet(jwtx.Key{ID: "test", Secret: testSecret})
	require.NoError(t, err)
	return jwtx.NewCodec(ks)
}

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	return &TokenIssuer{
		Codec:      newTestCodec(t),
		Issuer:     "cookieauth-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func newTestUsers(t *testing.T) *UserService {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	return NewUserService(s, cryptox.NewHasherWithParams("pepper", testHashParams))
}

// seedUser creates a@b.com / secret.
func seedUser(t *testing.T, users *UserService) domain.User {
	t.Helper()
	u, err := users.CreateUser(context.Background(), CreateUserInput{
		Email:     "a@b.com",
		Password:  "secret",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	return u
}

// fakeIdentities is an in-memory IdentityLookup.
type fakeIdentities struct {
	byID map[string]domain.Identity
	err  error
}

func (f *fakeIdentities) LookupIdentity(_ context.Context, id string) (domain.Identity, error) {
	if f.err != nil {
		return domain.Identity{}, f.err
	}
	identity, ok := f.byID[id]
	if !ok {
		return domain.Identity{}, ErrUserNotFound
	}
	return identity, nil
}

var alice = domain.Identity{ID: "01HXALICE0000000000000000A", Email: "alice@example.com", DisplayName: "Alice"}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{byID: map[string]domain.Identity{alice.ID: alice}}
}
