// Package router classifies inbound messages, runs admin commands and chat
// turns, and produces ordered outbound replies.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/kamir/trubot/internal/bus"
	"github.com/kamir/trubot/internal/chat"
	"github.com/kamir/trubot/internal/mirror"
	"github.com/kamir/trubot/internal/rules"
	"github.com/kamir/trubot/internal/timeline"
)

// Typing is the transport's typing indicator. Implementations may be per
// channel; a nil Typing disables the indicator.
type Typing interface {
	StartTyping(chatID string)
	StopTyping(chatID string)
}

// Options wires the router's collaborators. Timeline, Mirror and Typing are
// optional.
type Options struct {
	FbPrefix       string
	TbPrefix       string
	MaxReplyLength int
	Rules          *rules.Store
	Sessions       *chat.Registry
	Timeline       *timeline.Service
	Mirror         *mirror.Publisher
	Typing         Typing
}

// Router routes one inbound message event to completion: ignore, help,
// admin command, or a chat turn against the session for (chat, mode).
type Router struct {
	opts Options
}

func New(opts Options) *Router {
	if opts.FbPrefix == "" {
		opts.FbPrefix = "fb"
	}
	if opts.TbPrefix == "" {
		opts.TbPrefix = "tb"
	}
	if opts.MaxReplyLength <= 0 {
		opts.MaxReplyLength = 1900
	}
	return &Router{opts: opts}
}

var mentionPattern = regexp.MustCompile(`<@!?\d+>|@\d+`)

// Handle routes one inbound message and returns the ordered outbound
// replies, or nil when the message is ignored. A panic while handling is
// caught here and reported as a short error reply so one bad event cannot
// take down the gateway or touch other chats' sessions.
func (r *Router) Handle(ctx context.Context, msg *bus.InboundMessage) (out []*bus.OutboundMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Panic while routing message", "chat", msg.ChatID, "panic", rec)
			out = []*bus.OutboundMessage{r.reply(msg, fmt.Sprintf("Error: %v", rec))}
		}
	}()

	if msg.SenderIsBot {
		return nil
	}

	content := strings.TrimSpace(msg.Content)
	hasFb := matchPrefix(content, r.opts.FbPrefix)
	hasTb := matchPrefix(content, r.opts.TbPrefix)

	if !msg.IsPrivate && !hasFb && !hasTb && !msg.MentionsBot {
		return nil
	}

	var mode chat.Mode
	var input string
	switch {
	case hasFb && !hasTb:
		mode = chat.ModeRules
		input = stripPrefix(content, r.opts.FbPrefix)
	case hasTb || msg.MentionsBot:
		mode = chat.ModePlain
		if msg.MentionsBot {
			input = strings.TrimSpace(mentionPattern.ReplaceAllString(content, ""))
		} else {
			input = stripPrefix(content, r.opts.TbPrefix)
		}
	default:
		return nil
	}

	if input == "" {
		return []*bus.OutboundMessage{r.reply(msg, r.helpText(mode))}
	}

	if replies, handled := r.handleCommand(msg, mode, input); handled {
		return replies
	}

	return r.handleChat(ctx, msg, mode, input)
}

// handleCommand runs the admin sub-commands. Rules mode carries the rule
// management surface; plain mode only knows help and clear.
func (r *Router) handleCommand(msg *bus.InboundMessage, mode chat.Mode, input string) ([]*bus.OutboundMessage, bool) {
	if strings.EqualFold(input, "help") || strings.EqualFold(input, "commandlist") {
		return []*bus.OutboundMessage{r.reply(msg, r.helpText(mode))}, true
	}

	if strings.EqualFold(input, "clear") {
		if mode == chat.ModeRules {
			r.opts.Sessions.Delete(msg.ChatID, mode)
		} else {
			r.opts.Sessions.GetOrCreate(msg.ChatID, mode).Clear()
		}
		return []*bus.OutboundMessage{r.reply(msg, "Conversation cleared for this channel.")}, true
	}

	if mode != chat.ModeRules {
		return nil, false
	}

	p := r.opts.FbPrefix
	lower := strings.ToLower(input)
	switch {
	case strings.HasPrefix(lower, "addrule "):
		text := strings.TrimSpace(input[len("addrule "):])
		if text == "" {
			return []*bus.OutboundMessage{r.reply(msg, fmt.Sprintf("Usage: `%s addrule <your rule text>`", p))}, true
		}
		if err := r.opts.Rules.Add(text); err != nil {
			return []*bus.OutboundMessage{r.reply(msg, "Error: "+err.Error())}, true
		}
		return []*bus.OutboundMessage{r.reply(msg, "Added rule.")}, true

	case strings.HasPrefix(lower, "removerule "):
		numStr := strings.TrimSpace(input[len("removerule "):])
		num, convErr := strconv.Atoi(numStr)
		if convErr != nil {
			num = 0
		}
		ok, err := false, error(nil)
		if num >= 1 {
			ok, err = r.opts.Rules.RemoveAt(num)
		}
		if err != nil {
			return []*bus.OutboundMessage{r.reply(msg, "Error: "+err.Error())}, true
		}
		if !ok {
			return []*bus.OutboundMessage{r.reply(msg, fmt.Sprintf("Usage: `%s removerule <number>` (use listrules to see numbers).", p))}, true
		}
		return []*bus.OutboundMessage{r.reply(msg, fmt.Sprintf("Removed rule %d.", num))}, true

	case strings.HasPrefix(lower, "editrule "):
		after := strings.TrimSpace(input[len("editrule "):])
		if after == "" {
			return []*bus.OutboundMessage{r.reply(msg, fmt.Sprintf("Usage: `%s editrule <number> <new text>`  e.g. `%s editrule 1 Always be concise`", p, p))}, true
		}
		m := editRulePattern.FindStringSubmatch(after)
		if m == nil {
			return []*bus.OutboundMessage{r.reply(msg, editRuleUsage(p))}, true
		}
		num, _ := strconv.Atoi(m[1])
		ok, err := r.opts.Rules.EditAt(num, strings.TrimSpace(m[2]))
		if err != nil {
			return []*bus.OutboundMessage{r.reply(msg, "Error: "+err.Error())}, true
		}
		if !ok {
			return []*bus.OutboundMessage{r.reply(msg, editRuleUsage(p))}, true
		}
		return []*bus.OutboundMessage{r.reply(msg, fmt.Sprintf("Updated rule %d.", num))}, true

	case strings.EqualFold(input, "listrules"):
		lines, err := r.opts.Rules.List()
		if err != nil {
			return []*bus.OutboundMessage{r.reply(msg, "Error: "+err.Error())}, true
		}
		if len(lines) == 0 {
			return []*bus.OutboundMessage{r.reply(msg, fmt.Sprintf("No rules yet. Use `%s addrule <text>` to add one.", p))}, true
		}
		var b strings.Builder
		b.WriteString("**Rules:**")
		for i, line := range lines {
			fmt.Fprintf(&b, "\n%d. %s", i+1, line)
		}
		outText := b.String()
		if len(outText) > r.opts.MaxReplyLength+3 {
			cut := r.opts.MaxReplyLength - 1
			for cut > 0 && !utf8.RuneStart(outText[cut]) {
				cut--
			}
			outText = outText[:cut] + "…"
		}
		return []*bus.OutboundMessage{r.reply(msg, outText)}, true
	}

	return nil, false
}

var editRulePattern = regexp.MustCompile(`(?s)^(\d+)\s+(.+)$`)

func editRuleUsage(p string) string {
	return fmt.Sprintf("Usage: `%s editrule <number> <new text>` (use listrules to see numbers).", p)
}

// handleChat runs one chat turn. Rules text is injected only on the first
// message of a rules-mode session; reply wrapping is applied after that so
// the two can stack.
func (r *Router) handleChat(ctx context.Context, msg *bus.InboundMessage, mode chat.Mode, input string) []*bus.OutboundMessage {
	session := r.opts.Sessions.GetOrCreate(msg.ChatID, mode)

	prompt := input
	if mode == chat.ModeRules && !session.HasHistory() {
		rulesText, err := r.opts.Rules.Read()
		if err != nil {
			slog.Warn("Reading rules failed", "error", err)
		} else if rulesText != "" {
			prompt = "Follow these rules:\n" + rulesText + "\n\nUser message:\n" + input
		}
	}
	if ref := strings.TrimSpace(msg.ReferencedText); ref != "" {
		prompt = "The user is replying to this specific message:\n\"\"\"\n" + ref + "\n\"\"\"\n\nTheir reply: " + prompt
	}

	r.logExchange(ctx, msg, mode, "in", input)

	if r.opts.Typing != nil {
		r.opts.Typing.StartTyping(msg.ChatID)
	}
	reply := session.Chat(ctx, prompt)
	if r.opts.Typing != nil {
		r.opts.Typing.StopTyping(msg.ChatID)
	}

	r.logExchange(ctx, msg, mode, "out", reply)

	chunks := SplitChunks(reply, r.opts.MaxReplyLength)
	out := make([]*bus.OutboundMessage, 0, len(chunks))
	for i, chunk := range chunks {
		o := &bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: chunk,
			TraceID: msg.TraceID,
		}
		// First chunk replies to the triggering message, the rest follow
		// as plain sends.
		if i == 0 {
			o.ReplyToID = msg.MessageID
			o.ReplyToSender = msg.SenderID
		}
		out = append(out, o)
	}
	return out
}

func (r *Router) logExchange(ctx context.Context, msg *bus.InboundMessage, mode chat.Mode, direction, content string) {
	if r.opts.Timeline != nil {
		err := r.opts.Timeline.AddExchange(timeline.Exchange{
			TraceID:   msg.TraceID,
			Channel:   msg.Channel,
			ChatID:    msg.ChatID,
			Mode:      string(mode),
			Direction: direction,
			Content:   content,
			CreatedAt: time.Now(),
		})
		if err != nil {
			slog.Warn("Recording exchange failed", "error", err)
		}
	}
	if r.opts.Mirror != nil {
		err := r.opts.Mirror.Publish(ctx, mirror.Envelope{
			TraceID:   msg.TraceID,
			Channel:   msg.Channel,
			ChatID:    msg.ChatID,
			Mode:      string(mode),
			Direction: direction,
			Content:   content,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			slog.Warn("Mirroring exchange failed", "error", err)
		}
	}
}

func (r *Router) reply(msg *bus.InboundMessage, text string) *bus.OutboundMessage {
	return &bus.OutboundMessage{
		Channel:       msg.Channel,
		ChatID:        msg.ChatID,
		ReplyToID:     msg.MessageID,
		ReplyToSender: msg.SenderID,
		Content:       text,
		TraceID:       msg.TraceID,
	}
}

func (r *Router) helpText(mode chat.Mode) string {
	fb, tb := r.opts.FbPrefix, r.opts.TbPrefix
	if mode == chat.ModeRules {
		return fmt.Sprintf("**Commands (%[1]s — rules mode)**\n"+
			"• `%[1]s` (only) — this list\n"+
			"• `%[1]s <message>` — chat with Gemini (follows rules)\n  e.g. `%[1]s What is Go?`\n"+
			"• `%[1]s addrule <text>` — add a rule\n  e.g. `%[1]s addrule Always be polite`\n"+
			"• `%[1]s editrule <number> <new text>` — edit rule at number\n  e.g. `%[1]s editrule 1 Always be concise`\n"+
			"• `%[1]s removerule <number>` — remove rule at number\n  e.g. `%[1]s removerule 2`\n"+
			"• `%[1]s listrules` — list all rules with numbers\n"+
			"• `%[1]s clear` — clear conversation for this channel", fb)
	}
	return fmt.Sprintf("**trubot** — `%[1]s` = normal chat (shared in this channel), `%[2]s` = chat that follows your rules.\n"+
		"• `%[1]s <message>` — chat normally (or @mention); everyone in this channel shares the convo\n"+
		"• `%[1]s clear` — new conversation for this channel\n"+
		"• `%[2]s` — rules-mode command list", tb, fb)
}

// matchPrefix reports whether content starts with prefix (case-insensitive)
// followed by nothing, whitespace, or a comma. The delimiter check stops a
// prefix from matching inside a longer word.
func matchPrefix(content, prefix string) bool {
	if prefix == "" || len(content) < len(prefix) {
		return false
	}
	if !strings.EqualFold(content[:len(prefix)], prefix) {
		return false
	}
	if len(content) == len(prefix) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(content[len(prefix):])
	return unicode.IsSpace(r) || r == ','
}

// stripPrefix removes the prefix plus any leading commas and whitespace.
func stripPrefix(content, prefix string) string {
	rest := content[len(prefix):]
	rest = strings.TrimLeft(rest, ", \t\r\n")
	return strings.TrimSpace(rest)
}
