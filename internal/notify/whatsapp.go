package notify

import (
	"context"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

// WhatsAppSender is a Notifier backed by a linked WhatsApp device whose
// session lives in a sqlite file under dataDir.
type WhatsAppSender struct {
	client *whatsmeow.Client
	log    zerolog.Logger
}

func NewWhatsAppSender(ctx context.Context, dataDir string) (*WhatsAppSender, error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "WhatsApp").Logger()

	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s/whatsmeow.db?_foreign_keys=on", dataDir), nil)
	if err != nil {
		return nil, fmt.Errorf("open whatsapp session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get whatsapp device: %w", err)
	}

	return &WhatsAppSender{
		client: whatsmeow.NewClient(deviceStore, nil),
		log:    logger,
	}, nil
}

// Connect links the device when needed, printing the pairing QR code to
// stdout, and connects.
func (s *WhatsAppSender) Connect(ctx context.Context) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("connect whatsapp: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("get qr channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("connect whatsapp: %w", err)
	}
	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("login event")
			continue
		}
		q, err := qrcode.New(evt.Code, qrcode.Medium)
		if err != nil {
			s.log.Warn().Err(err).Str("code", evt.Code).Msg("render qr code")
			continue
		}
		fmt.Println("\n" + q.ToSmallString(false))
		fmt.Println("Scan the QR code above in WhatsApp > Settings > Linked Devices")
	}
	return nil
}

func (s *WhatsAppSender) Close() {
	s.client.Disconnect()
}

// Send delivers message to phone after checking the number is on WhatsApp.
func (s *WhatsAppSender) Send(ctx context.Context, phone, message string) error {
	number := NormalizePhoneNumber(phone)
	if number == "" {
		return fmt.Errorf("invalid phone number %q", phone)
	}

	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + number})
	if err != nil {
		return fmt.Errorf("verify number on whatsapp: %w", err)
	}
	jid := types.NewJID(number, types.DefaultUserServer)
	if len(resp) > 0 {
		if !resp[0].IsIn {
			return fmt.Errorf("number %s is not registered on whatsapp", number)
		}
		jid = resp[0].JID
	}

	s.log.Debug().Str("jid", jid.String()).Msg("sending message")
	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(message),
	})
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	s.log.Info().Str("id", sent.ID).Time("timestamp", sent.Timestamp).Msg("message sent")
	return nil
}

// NormalizePhoneNumber reduces a phone number to its international digits:
// formatting characters are dropped and a leading 00 is treated as +.
func NormalizePhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(strings.TrimSpace(phone), "00") {
		digits = strings.TrimPrefix(digits, "00")
	}
	return digits
}
