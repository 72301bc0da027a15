package models

import (
	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// Base is embedded inline in every persisted entity and carries its SixID.
type Base struct {
	ID utils.SixID `bson:"_id,omitempty" json:"id,omitempty"`
}

func (m *Base) GenIDIfEmpty() {
	if m.ID == (utils.SixID{}) {
		m.GenID()
	}
}

func (m *Base) GenID() {
	m.ID = utils.NewSixID()
}

func NewBase() Base {
	return Base{
		ID: utils.NewSixID(),
	}
}
