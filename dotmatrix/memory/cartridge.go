package memory

import (
	"fmt"
	"log/slog"
	"strings"
)

// ROMSize is the size of a flat (unbanked) ROM image. Larger images need an
// MBC, which is not modeled.
const ROMSize = 0x8000

const (
	titleAddress          = 0x0134
	titleLength           = 16
	cartridgeTypeAddress  = 0x0147
	romSizeAddress        = 0x0148
	headerChecksumAddress = 0x014D
)

// UnsupportedCartridgeError is returned when a ROM image cannot be emulated,
// either because it declares a mapper in its header or because it is larger
// than the flat 32 KiB address window.
type UnsupportedCartridgeError struct {
	CartType byte
	Size     int
	Reason   string
}

func (e *UnsupportedCartridgeError) Error() string {
	return fmt.Sprintf("unsupported cartridge (type 0x%02X, %d bytes): %s", e.CartType, e.Size, e.Reason)
}

// Cartridge owns the ROM bytes of a loaded game and exposes read-only access
// to them. It is immutable after load.
type Cartridge struct {
	data     []byte
	title    string
	cartType byte
	romSize  byte
}

// NewCartridge creates an empty cartridge. All reads return 0xFF, like a
// Game Boy powered on with nothing in the slot.
func NewCartridge() *Cartridge {
	return &Cartridge{}
}

// LoadCartridge validates a ROM image and wraps it in a Cartridge. Only flat
// ROM-only images (header type 0x00) of at most 32 KiB are accepted.
func LoadCartridge(data []byte) (*Cartridge, error) {
	if len(data) > ROMSize {
		return nil, &UnsupportedCartridgeError{
			Size:   len(data),
			Reason: "image larger than 32 KiB requires an MBC",
		}
	}
	if len(data) <= headerChecksumAddress {
		return nil, &UnsupportedCartridgeError{
			Size:   len(data),
			Reason: "image too small to contain a header",
		}
	}

	cartType := data[cartridgeTypeAddress]
	if cartType != 0x00 {
		return nil, &UnsupportedCartridgeError{
			CartType: cartType,
			Size:     len(data),
			Reason:   "only ROM-only cartridges are supported",
		}
	}

	cart := &Cartridge{
		data:     make([]byte, len(data)),
		title:    parseTitle(data),
		cartType: cartType,
		romSize:  data[romSizeAddress],
	}
	copy(cart.data, data)

	if !headerChecksumOK(data) {
		slog.Warn("Cartridge header checksum mismatch", "title", cart.title)
	}

	return cart, nil
}

// Read returns the ROM byte at the given address. Addresses past the end of
// the image read as 0xFF, like unconnected bus lines.
func (c *Cartridge) Read(address uint16) byte {
	if int(address) >= len(c.data) {
		return 0xFF
	}
	return c.data[address]
}

// Title returns the (trimmed) title string from the cartridge header.
func (c *Cartridge) Title() string {
	return c.title
}

func parseTitle(data []byte) string {
	raw := data[titleAddress : titleAddress+titleLength]
	return strings.TrimRight(string(raw), "\x00")
}

// headerChecksumOK recomputes the 8-bit checksum over 0x0134-0x014C and
// compares it against the header byte. Some homebrew leaves it blank, so a
// mismatch is reported but never fatal.
func headerChecksumOK(data []byte) bool {
	var sum byte
	for address := titleAddress; address < headerChecksumAddress; address++ {
		sum = sum - data[address] - 1
	}
	return sum == data[headerChecksumAddress]
}
