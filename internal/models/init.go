package models

import (
	"strings"

	"github.com/merchantflow/internal/constants"
	"github.com/merchantflow/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultOperator 初始化默认超级操作员账号
func InitDefaultOperator(username, password string) error {
	var count int64
	DB.Model(&Operator{}).Count(&count)
	if count > 0 {
		return nil
	}

	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	operator := Operator{
		Username:     strings.TrimSpace(username),
		PasswordHash: string(hash),
		Role:         "super",
		Status:       constants.OperatorStatusActive,
	}
	if err := DB.Create(&operator).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_operator_created_with_default_password", "username", operator.Username)
	} else {
		logger.Warnw("default_operator_created", "username", operator.Username, "password_hidden", true)
	}
	return nil
}
