package pix

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"

	"pix-provider/internal/config"
)

// EMV merchant-presented-mode field ids used by static BR Codes.
const (
	idPayloadFormat       = "00"
	idMerchantAccountInfo = "26"
	idMerchantCategory    = "52"
	idCurrency            = "53"
	idAmount              = "54"
	idCountry             = "58"
	idMerchantName        = "59"
	idMerchantCity        = "60"
	idAdditionalData      = "62"
	idCRC                 = "63"

	idAccountGUI         = "00"
	idAccountKey         = "01"
	idAccountDescription = "02"
	idTxID               = "05"

	pixGUI       = "br.gov.bcb.pix"
	currencyBRL  = "986"
	countryBR    = "BR"
	categoryNone = "0000"

	maxNameLen = 25
	maxCityLen = 15
	maxTxIDLen = 25
	maxDescLen = 40

	qrImageSize = 256
)

// Request carries the per-payment parameters for code generation; the
// merchant identity comes from the generator's own configuration.
type Request struct {
	Amount      float64
	Description string
	TxID        string
}

// Code is the generated presentment pair: the copy-and-paste BR Code
// payload and its QR rendering as a PNG data URI.
type Code struct {
	Payload string
	Image   string
}

// Generator produces a presentable payment code for a payment request.
type Generator interface {
	Generate(req Request) (Code, error)
}

// StaticGenerator builds static BR Codes (EMV MPM TLV payloads) for a
// fixed merchant identity.
type StaticGenerator struct {
	key  string
	name string
	city string
}

func NewStaticGenerator(cfg config.Pix) *StaticGenerator {
	return &StaticGenerator{
		key:  cfg.Key,
		name: cfg.Name,
		city: cfg.City,
	}
}

func (g *StaticGenerator) Generate(req Request) (Code, error) {
	if g.key == "" || g.name == "" || g.city == "" {
		return Code{}, errors.New("merchant identity not configured")
	}
	if req.Amount <= 0 {
		return Code{}, errors.New("amount must be positive")
	}
	if req.TxID == "" {
		return Code{}, errors.New("txid is required")
	}

	payload := g.payload(req)

	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return Code{}, errors.Wrap(err, "rendering qr code")
	}

	return Code{
		Payload: payload,
		Image:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

func (g *StaticGenerator) payload(req Request) string {
	account := field(idAccountGUI, pixGUI) + field(idAccountKey, g.key)
	if req.Description != "" {
		account += field(idAccountDescription, truncate(req.Description, maxDescLen))
	}

	payload := field(idPayloadFormat, "01") +
		field(idMerchantAccountInfo, account) +
		field(idMerchantCategory, categoryNone) +
		field(idCurrency, currencyBRL) +
		field(idAmount, strconv.FormatFloat(req.Amount, 'f', 2, 64)) +
		field(idCountry, countryBR) +
		field(idMerchantName, truncate(g.name, maxNameLen)) +
		field(idMerchantCity, truncate(g.city, maxCityLen)) +
		field(idAdditionalData, field(idTxID, truncate(req.TxID, maxTxIDLen)))

	// CRC covers the payload including its own id and length.
	payload += idCRC + "04"
	payload += fmt.Sprintf("%04X", crc16(payload))

	return payload
}

func field(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// crc16 implements CRC-16/CCITT-FALSE as required by EMV field 63.
func crc16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
