package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/kinmel-dev/kinmel-backend/internal/app/repository"
	"github.com/kinmel-dev/kinmel-backend/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrCourierInactive    = errors.New("courier account is deactivated")
	ErrInvalidToken       = errors.New("invalid token")
)

// CourierClaims are the JWT claims issued to couriers.
type CourierClaims struct {
	CourierID uint   `json:"courier_id"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}

type CourierAuthService interface {
	Login(phone, password string) (string, *model.Courier, error)
	ValidateToken(tokenString string) (*CourierClaims, error)
}

type courierAuthService struct {
	courierRepo repository.CourierRepository
	jwtSecret   string
	tokenExpiry time.Duration
}

func NewCourierAuthService(courierRepo repository.CourierRepository, jwtSecret string, tokenExpiry time.Duration) CourierAuthService {
	return &courierAuthService{
		courierRepo: courierRepo,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}
}

func (s *courierAuthService) Login(phone, password string) (string, *model.Courier, error) {
	courier, err := s.courierRepo.FindByPhone(phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(courier.PasswordHash), []byte(password)); err != nil {
		logger.Warn("Courier login failed", map[string]interface{}{
			"phone": phone,
		})
		return "", nil, ErrInvalidCredentials
	}

	if !courier.Active {
		return "", nil, ErrCourierInactive
	}

	now := time.Now().UTC()
	claims := CourierClaims{
		CourierID: courier.ID,
		Name:      courier.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   model.CourierActor(courier.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", nil, err
	}

	logger.Info("Courier logged in", map[string]interface{}{
		"courier_id": courier.ID,
	})
	return signed, courier, nil
}

func (s *courierAuthService) ValidateToken(tokenString string) (*CourierClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CourierClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*CourierClaims)
	if !ok || claims.CourierID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
