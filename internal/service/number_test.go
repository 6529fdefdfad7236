package service

import (
	"strings"
	"testing"
)

func TestGenerateBusinessNo(t *testing.T) {
	no := generateBusinessNo(orderNoPrefix)
	if !strings.HasPrefix(no, orderNoPrefix) {
		t.Fatalf("expected prefix %s, got %s", orderNoPrefix, no)
	}
	// 前缀 + 14 位时间戳 + 6 位随机数字
	if len(no) != len(orderNoPrefix)+20 {
		t.Fatalf("unexpected length %d: %s", len(no), no)
	}
	for _, r := range no[len(orderNoPrefix):] {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric suffix, got %s", no)
		}
	}
}

func TestGenerateBusinessNoUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		no := generateBusinessNo(withdrawNoPrefix)
		if seen[no] {
			t.Fatalf("duplicate business no: %s", no)
		}
		seen[no] = true
	}
}
