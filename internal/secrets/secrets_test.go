package secrets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	mu    sync.Mutex
	calls int
	value string
	err   error
	last  *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}

	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(f.value)}}, nil
}

func TestStatic(t *testing.T) {
	v, err := Static("k").SigningSecret(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("k"), v)

	_, err = Static("").SigningSecret(context.Background())
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestSSM_RequestsDecryptedParameter(t *testing.T) {
	api := &fakeSSM{value: "jwt-secret"}
	r := NewSSM(api, "/playlist/jwt", time.Minute)

	v, err := r.SigningSecret(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("jwt-secret"), v)

	require.Equal(t, "/playlist/jwt", aws.ToString(api.last.Name))
	require.True(t, aws.ToBool(api.last.WithDecryption))
}

func TestSSM_CachesWithinTTL(t *testing.T) {
	api := &fakeSSM{value: "v1"}
	r := NewSSM(api, "p", time.Minute)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		v, err := r.Value(context.Background())
		require.NoError(t, err)
		require.Equal(t, "v1", v)
	}
	require.Equal(t, 1, api.calls)

	api.value = "v2"
	now = now.Add(2 * time.Minute)

	v, err := r.Value(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v2", v)
	require.Equal(t, 2, api.calls)
}

func TestSSM_ZeroTTL_AlwaysFetches(t *testing.T) {
	api := &fakeSSM{value: "v"}
	r := NewSSM(api, "p", 0)

	_, err := r.Value(context.Background())
	require.NoError(t, err)
	_, err = r.Value(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, api.calls)
}

func TestSSM_Errors(t *testing.T) {
	boom := errors.New("access denied")
	_, err := NewSSM(&fakeSSM{err: boom}, "p", time.Minute).Value(context.Background())
	require.ErrorIs(t, err, boom)

	_, err = NewSSM(&fakeSSM{value: ""}, "p", time.Minute).Value(context.Background())
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestSSM_Concurrent(t *testing.T) {
	api := &fakeSSM{value: "v"}
	r := NewSSM(api, "p", time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.Value(context.Background())
			require.NoError(t, err)
			require.Equal(t, "v", v)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, api.calls)
}
