package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/akarpov/passportd/internal/model"
)

type DeliveryGateway struct {
	mock.Mock
}

var _ model.DeliveryGateway = (*DeliveryGateway)(nil)

func (m *DeliveryGateway) SendSMS(cellphone, text string) {
	m.Called(cellphone, text)
}

func (m *DeliveryGateway) SendMail(to []string, subject, htmlBody string) {
	m.Called(to, subject, htmlBody)
}
