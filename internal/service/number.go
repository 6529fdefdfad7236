package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// 业务编号前缀
const (
	orderNoPrefix      = "ORD"
	allocationNoPrefix = "ALO"
	workNoPrefix       = "WRK"
	logisticsNoPrefix  = "LGT"
	paymentNoPrefix    = "PAY"
	settlementNoPrefix = "STL"
	withdrawNoPrefix   = "WDR"
)

// generateBusinessNo 生成业务编号：前缀 + 秒级时间戳 + 6位随机数字
func generateBusinessNo(prefix string) string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("%s%s%s", prefix, now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
