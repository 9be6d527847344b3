package services

import (
	"log"

	"flipduel/internal/models"

	"gorm.io/gorm"
)

type AuthService struct {
	db          *gorm.DB
	adminWallet string
}

func NewAuthService(db *gorm.DB, adminWallet string) *AuthService {
	return &AuthService{db: db, adminWallet: adminWallet}
}

// ProcessWalletLogin finds or creates a user by wallet address
func (s *AuthService) ProcessWalletLogin(walletAddress string) (*models.User, error) {
	var user models.User

	result := s.db.Where("wallet_address = ?", walletAddress).First(&user)
	if result.Error == gorm.ErrRecordNotFound {
		user = models.User{
			WalletAddress: walletAddress,
			IsAdmin:       walletAddress != "" && walletAddress == s.adminWallet,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		log.Printf("New user created: wallet=%s (ID: %d)", walletAddress, user.ID)
		return &user, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	log.Printf("User logged in: wallet=%s (ID: %d)", walletAddress, user.ID)
	return &user, nil
}

// GetUserByWallet looks a user up by wallet address
func (s *AuthService) GetUserByWallet(walletAddress string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("wallet_address = ?", walletAddress).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IsAdmin reports whether a wallet has admin access
func (s *AuthService) IsAdmin(walletAddress string) bool {
	if walletAddress != "" && walletAddress == s.adminWallet {
		return true
	}
	user, err := s.GetUserByWallet(walletAddress)
	if err != nil {
		return false
	}
	return user.IsAdmin
}
