package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInitializeRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"initialize", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`, true},
		{"tools list", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, false},
		{"tool call", `{"jsonrpc":"2.0","id":1,"method":"tools/call"}`, false},
		{"no method", `{"jsonrpc":"2.0","id":1}`, false},
		{"not json", `initialize`, false},
		{"empty", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInitializeRequest([]byte(tt.body)))
		})
	}
}

func TestExemptMethod(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"initialize", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, true},
		{"initialized notification", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, true},
		{"tools list", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, true},
		{"tool call", `{"jsonrpc":"2.0","id":1,"method":"tools/call"}`, false},
		{"resources list", `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, false},
		{"garbage", `{`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExemptMethod([]byte(tt.body)))
		})
	}
}
