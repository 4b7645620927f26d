package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSend(t *testing.T) {
	var gotPath, gotChatID, gotText, gotParseMode string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()

		gotPath = r.URL.Path
		gotChatID = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		gotParseMode = r.PostForm.Get("parse_mode")

		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewClient(Options{
		BotToken: "123:secret",
		ChatID:   "-1001",
		APIURL:   server.URL,
	})

	err := client.Send(context.Background(), "Patch run completed successfully")

	assert.NoErrorf(t, err, "Send")
	assert.Equal(t, "/bot123:secret/sendMessage", gotPath)
	assert.Equal(t, "-1001", gotChatID)
	assert.Equal(t, "Patch run completed successfully", gotText)
	assert.Equal(t, "HTML", gotParseMode)
}

func TestSendFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok": false, "description": "Bad Request: chat not found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Options{
		BotToken: "123:secret",
		ChatID:   "-1001",
		APIURL:   server.URL,
	})

	err := client.Send(context.Background(), "test")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}
