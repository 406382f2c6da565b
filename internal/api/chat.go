// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/jeranaias/statchat/internal/model"
)

// SendMessage posts a question. An empty conversationID asks the backend to
// open a new conversation; the reply carries its id.
func (c *Client) SendMessage(ctx context.Context, message, conversationID string) (*ChatReply, error) {
	req := chatRequest{Message: message}
	if conversationID != "" {
		req.ConversationID = &conversationID
	}
	var out ChatReply
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/chat", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Conversations lists the user's conversations, newest first.
func (c *Client) Conversations(ctx context.Context) ([]model.Conversation, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/conversations"}, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[conversationWire](raw, "conversations")
	if err != nil {
		return nil, err
	}
	out := make([]model.Conversation, 0, len(items))
	for _, it := range items {
		out = append(out, it.toModel())
	}
	return out, nil
}

// Messages returns a conversation's history in chronological order.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var raw json.RawMessage
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: path}, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[messageWire](raw, "messages")
	if err != nil {
		return nil, err
	}
	out := make([]model.Message, 0, len(items))
	for _, it := range items {
		out = append(out, it.toModel())
	}
	return out, nil
}

// DeleteConversation removes a conversation on the backend.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	path := "/conversations/" + url.PathEscape(conversationID)
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

// RestartConversation clears the backend's conversational context for a
// conversation. History is kept.
func (c *Client) RestartConversation(ctx context.Context, conversationID string) error {
	path := "/conversations/" + url.PathEscape(conversationID) + "/restart"
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path}, nil)
}

// MessageDetails fetches the extended view of a stored message.
func (c *Client) MessageDetails(ctx context.Context, messageID string) (*model.MessageDetails, error) {
	var out detailsWire
	path := "/chat/details/" + url.PathEscape(messageID)
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: path}, &out); err != nil {
		return nil, err
	}
	return out.toModel(), nil
}
