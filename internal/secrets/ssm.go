package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/log"
)

// ParameterAPI — часть клиента SSM, которой пользуется пакет.
type ParameterAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewSSMClient создаёт клиент SSM из стандартной цепочки AWS-учёток.
// Непустой endpoint переопределяет адрес сервиса (localstack и т.п.).
func NewSSMClient(ctx context.Context, region, endpoint string) (*ssm.Client, error) {
	const op = "secrets.ssm.NewSSMClient"

	cfg, err := loadDefaultAWSConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ssm.NewFromConfig(cfg, func(o *ssm.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// SSM читает параметр из Parameter Store и кэширует его на ttl.
// Безопасен для конкурентного использования.
type SSM struct {
	api  ParameterAPI
	name string
	ttl  time.Duration
	now  func() time.Time

	mu        sync.RWMutex
	value     string
	fetchedAt time.Time
}

// NewSSM создаёт резолвер параметра name. ttl <= 0 отключает кэш.
func NewSSM(api ParameterAPI, name string, ttl time.Duration) *SSM {
	return &SSM{
		api:  api,
		name: name,
		ttl:  ttl,
		now:  time.Now,
	}
}

// SigningSecret возвращает значение параметра как ключ подписи.
func (s *SSM) SigningSecret(ctx context.Context) ([]byte, error) {
	v, err := s.Value(ctx)
	if err != nil {
		return nil, err
	}

	return []byte(v), nil
}

// Value возвращает расшифрованное значение параметра.
func (s *SSM) Value(ctx context.Context) (string, error) {
	const op = "secrets.ssm.Value"

	if v, ok := s.cached(); ok {
		return v, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Повторная проверка: параметр мог обновить конкурентный вызов.
	if s.fresh() {
		return s.value, nil
	}

	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		log.From(ctx).Error("ssm_get_parameter_failed",
			slog.String("op", op),
			slog.String("name", s.name),
			slog.String("err", err.Error()),
		)

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if out == nil || out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", fmt.Errorf("%s: %s: %w", op, s.name, ErrEmptySecret)
	}

	s.value = aws.ToString(out.Parameter.Value)
	s.fetchedAt = s.now()
	log.From(ctx).Debug("ssm_parameter_resolved", slog.String("name", s.name))

	return s.value, nil
}

func (s *SSM) cached() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fresh() {
		return s.value, true
	}

	return "", false
}

// fresh вызывается под s.mu.
func (s *SSM) fresh() bool {
	if s.value == "" || s.ttl <= 0 {
		return false
	}

	return s.now().Sub(s.fetchedAt) < s.ttl
}
