package bot

import (
	"context"
	"fmt"
	"log/slog"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	watypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	_ "github.com/mattn/go-sqlite3"
)

// QRPrinter shows a pairing code to the operator on first login.
type QRPrinter func(code string)

type WhatsAppTransport struct {
	client *whatsmeow.Client
	qr     QRPrinter
}

// NewWhatsAppTransport opens the device store at storePath (SQLite) and prepares a client
// for the first device in it.
func NewWhatsAppTransport(ctx context.Context, storePath string, qr QRPrinter) (*WhatsAppTransport, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", storePath)
	container, err := sqlstore.New(ctx, "sqlite3", dsn, newWALogger("whatsapp/store"))
	if err != nil {
		return nil, fmt.Errorf("open whatsapp store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load whatsapp device: %w", err)
	}
	client := whatsmeow.NewClient(device, newWALogger("whatsapp/client"))
	return &WhatsAppTransport{client: client, qr: qr}, nil
}

func (w *WhatsAppTransport) Run(ctx context.Context, handle Handler) error {
	w.client.AddEventHandler(func(evt any) {
		v, ok := evt.(*events.Message)
		if !ok || v.Info.IsFromMe {
			return
		}
		text := messageText(v.Message)
		if text == "" {
			return
		}
		handle(ctx, Message{
			ChatID: v.Info.Chat.String(),
			UserID: v.Info.Sender.ToNonAD().String(),
			Text:   text,
		})
	})

	if w.client.Store.ID == nil {
		qrChan, err := w.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("get qr channel: %w", err)
		}
		if err := w.client.Connect(); err != nil {
			return fmt.Errorf("connect whatsapp: %w", err)
		}
		for evt := range qrChan {
			if evt.Event == "code" {
				if w.qr != nil {
					w.qr(evt.Code)
				}
				continue
			}
			slog.Info("WhatsApp login event", "event", evt.Event)
		}
	} else if err := w.client.Connect(); err != nil {
		return fmt.Errorf("connect whatsapp: %w", err)
	}

	<-ctx.Done()
	w.client.Disconnect()
	return nil
}

func (w *WhatsAppTransport) Send(ctx context.Context, chatID, text string) error {
	jid, err := watypes.ParseJID(chatID)
	if err != nil {
		return fmt.Errorf("invalid whatsapp jid %q: %w", chatID, err)
	}
	if _, err := w.client.SendMessage(ctx, jid, &waE2E.Message{Conversation: &text}); err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	return nil
}

func messageText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if text := msg.GetConversation(); text != "" {
		return text
	}
	if text := msg.GetExtendedTextMessage().GetText(); text != "" {
		return text
	}
	return msg.GetImageMessage().GetCaption()
}
