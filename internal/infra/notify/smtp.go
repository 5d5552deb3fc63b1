package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"

	"storefront/internal/usecase"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier は注文確認メールを送る。
type SMTPNotifier struct {
	host string
	port int
	from string
	send sendFunc
}

func NewSMTPNotifier(host string, port int, from string) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, send: smtp.SendMail}
}

func (n *SMTPNotifier) NotifyOrderPlaced(ctx context.Context, notice usecase.OrderNotice) error {
	if notice.CustomerEmail == "" {
		return fmt.Errorf("notify: order %s has no customer email", notice.OrderID)
	}
	body, err := renderOrderConfirmation(notice)
	if err != nil {
		return err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", notice.CustomerEmail)
	fmt.Fprintf(&msg, "Subject: Order confirmation (%s)\r\n", shortID(notice.OrderID))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.Write(body)

	//net/smtpはctxを受け取らないので、送信前に打ち切りだけ確認する
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	return n.send(addr, nil, n.from, []string{notice.CustomerEmail}, msg.Bytes())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
