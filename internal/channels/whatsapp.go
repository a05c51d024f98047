package channels

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kamir/trubot/internal/bus"
	"github.com/kamir/trubot/internal/config"
	"github.com/kamir/trubot/internal/timeline"
	"github.com/skip2/go-qrcode"

	_ "modernc.org/sqlite"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// WhatsAppChannel implements a native WhatsApp client.
type WhatsAppChannel struct {
	BaseChannel
	client    *whatsmeow.Client
	config    config.WhatsAppConfig
	stateDir  string
	container *sqlstore.Container
	timeline  *timeline.Service
	sendFn    func(ctx context.Context, msg *bus.OutboundMessage) error
}

// NewWhatsAppChannel creates a new WhatsApp channel. stateDir holds the
// session database and the login QR image.
func NewWhatsAppChannel(cfg config.WhatsAppConfig, stateDir string, messageBus *bus.MessageBus, tl *timeline.Service) *WhatsAppChannel {
	return &WhatsAppChannel{
		BaseChannel: BaseChannel{Bus: messageBus},
		config:      cfg,
		stateDir:    stateDir,
		timeline:    tl,
	}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

func (c *WhatsAppChannel) Start(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	dbLog := waLog.Stdout("Database", "WARN", true)
	clientLog := waLog.Stdout("Client", "INFO", true)

	dbPath := filepath.Join(c.stateDir, "whatsapp.db")
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	container, err := sqlstore.New(ctx, "sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbLog)
	if err != nil {
		return fmt.Errorf("failed to init whatsapp db: %w", err)
	}
	c.container = container

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get device: %w", err)
	}

	c.client = whatsmeow.NewClient(deviceStore, clientLog)
	c.client.AddEventHandler(c.eventHandler)

	if c.client.Store.ID == nil {
		// No session, need to pair
		qrChan, _ := c.client.GetQRChannel(context.Background())
		err = c.client.Connect()
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}

		fmt.Println("WhatsApp: Scan this QR code to login:")
		for evt := range qrChan {
			if evt.Event == "code" {
				qrPath := filepath.Join(c.stateDir, "whatsapp-qr.png")
				err := qrcode.WriteFile(evt.Code, qrcode.Medium, 512, qrPath)
				if err == nil {
					fmt.Printf("\nWhatsApp login QR code saved to: %s\n", qrPath)
					fmt.Println("Open this file and scan it with your phone.")
				}
			} else {
				fmt.Println("WhatsApp: Login event:", evt.Event)
			}
		}
	} else {
		err = c.client.Connect()
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		fmt.Println("WhatsApp: Connected")
	}

	c.Bus.Subscribe(c.Name(), func(msg *bus.OutboundMessage) {
		c.handleOutbound(msg)
	})

	return nil
}

func (c *WhatsAppChannel) Stop() error {
	if c.client != nil {
		c.client.Disconnect()
	}
	if c.container != nil {
		c.container.Close()
	}
	return nil
}

// Send delivers one outbound message. A non-empty ReplyToID makes the
// message quote the triggering message.
func (c *WhatsAppChannel) Send(ctx context.Context, msg *bus.OutboundMessage) error {
	if c.client == nil {
		return fmt.Errorf("client not initialized")
	}

	jid, err := types.ParseJID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid JID: %w", err)
	}

	var waMsg *waE2E.Message
	if msg.ReplyToID != "" {
		waMsg = &waE2E.Message{
			ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String(msg.Content),
				ContextInfo: &waE2E.ContextInfo{
					StanzaID:      proto.String(msg.ReplyToID),
					Participant:   proto.String(msg.ReplyToSender),
					QuotedMessage: &waE2E.Message{Conversation: proto.String("")},
				},
			},
		}
	} else {
		waMsg = &waE2E.Message{
			Conversation: proto.String(msg.Content),
		}
	}

	_, err = c.client.SendMessage(ctx, jid, waMsg)

	return err
}

// StartTyping shows the composing indicator in the given chat.
func (c *WhatsAppChannel) StartTyping(chatID string) {
	c.setPresence(chatID, types.ChatPresenceComposing)
}

// StopTyping clears the composing indicator.
func (c *WhatsAppChannel) StopTyping(chatID string) {
	c.setPresence(chatID, types.ChatPresencePaused)
}

func (c *WhatsAppChannel) setPresence(chatID string, state types.ChatPresence) {
	if c.client == nil {
		return
	}
	jid, err := types.ParseJID(chatID)
	if err != nil {
		return
	}
	_ = c.client.SendChatPresence(context.Background(), jid, state, types.ChatPresenceMediaText)
}

func (c *WhatsAppChannel) handleOutbound(msg *bus.OutboundMessage) {
	// Silent mode suppresses all outbound traffic
	if c.timeline != nil && c.timeline.IsSilentMode() {
		fmt.Printf("Silent mode: suppressed outbound to %s channel=%s\n", msg.ChatID, c.Name())
		return
	}
	sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.sendOutbound(sendCtx, msg); err != nil {
		fmt.Printf("Error sending whatsapp message: %v\n", err)
	}
}

func (c *WhatsAppChannel) sendOutbound(ctx context.Context, msg *bus.OutboundMessage) error {
	if c.sendFn != nil {
		return c.sendFn(ctx, msg)
	}
	return c.Send(ctx, msg)
}

func (c *WhatsAppChannel) eventHandler(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		content := ""
		referenced := ""
		mentionsBot := false

		if v.Message.GetConversation() != "" {
			content = v.Message.GetConversation()
		} else if ext := v.Message.GetExtendedTextMessage(); ext.GetText() != "" {
			content = ext.GetText()
			if ctxInfo := ext.GetContextInfo(); ctxInfo != nil {
				referenced = quotedText(ctxInfo.GetQuotedMessage())
				mentionsBot = c.mentionsSelf(ctxInfo.GetMentionedJID())
			}
		}
		if content == "" {
			return
		}

		sender := v.Info.Sender.User
		if !c.isAllowed(sender) {
			fmt.Printf("Unauthorized sender: %s\n", sender)
			return
		}

		c.Bus.PublishInbound(&bus.InboundMessage{
			Channel:        c.Name(),
			SenderID:       sender,
			SenderIsBot:    v.Info.IsFromMe,
			ChatID:         v.Info.Chat.String(),
			MessageID:      v.Info.ID,
			Content:        content,
			ReferencedText: referenced,
			MentionsBot:    mentionsBot,
			IsPrivate:      !v.Info.IsGroup,
			TraceID:        "trace:" + v.Info.ID,
			Timestamp:      v.Info.Timestamp,
		})
	}
}

func quotedText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if msg.GetConversation() != "" {
		return msg.GetConversation()
	}
	return msg.GetExtendedTextMessage().GetText()
}

func (c *WhatsAppChannel) mentionsSelf(jids []string) bool {
	if c.client == nil || c.client.Store.ID == nil {
		return false
	}
	self := c.client.Store.ID.User
	for _, jid := range jids {
		parsed, err := types.ParseJID(jid)
		if err == nil && parsed.User == self {
			return true
		}
	}
	return false
}

func (c *WhatsAppChannel) isAllowed(sender string) bool {
	if len(c.config.AllowFrom) == 0 {
		return true
	}
	for _, allowed := range c.config.AllowFrom {
		if allowed == sender {
			return true
		}
	}
	return false
}
