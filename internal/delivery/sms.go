package delivery

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSSender delivers a text message to a cellphone.
type SMSSender interface {
	Send(cellphone, text string) error
}

// HTTPSMSSender submits messages to an SMS provider over a form POST.
type HTTPSMSSender struct {
	url         string
	userName    string
	passwordMD5 string
	apiKey      string
	client      *http.Client
}

func NewHTTPSMSSender(gatewayURL, userName, passwordMD5, apiKey string, timeout time.Duration) *HTTPSMSSender {
	return &HTTPSMSSender{
		url:         gatewayURL,
		userName:    userName,
		passwordMD5: passwordMD5,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSMSSender) Send(cellphone, text string) error {
	form := url.Values{
		"username":     {s.userName},
		"password_md5": {s.passwordMD5},
		"apikey":       {s.apiKey},
		// The provider expects the national number without the +86 prefix.
		"mobile":  {strings.TrimPrefix(cellphone, "+86")},
		"content": {text},
		"encode":  {"utf-8"},
	}

	resp, err := s.client.PostForm(s.url, form)
	if err != nil {
		return fmt.Errorf("failed to post sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}
