// Package palette описывает цвета настроек монумента.
package palette

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RGB цвет как тройка компонент 0..255
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// Parse разбирает строку вида "107, 126, 127"
func Parse(s string) (RGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("цвет %q: ожидалось 3 компоненты, получено %d", s, len(parts))
	}

	var out [3]uint8
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return RGB{}, fmt.Errorf("цвет %q: компонента %d: %w", s, i, err)
		}
		if n < 0 || n > 255 {
			return RGB{}, fmt.Errorf("цвет %q: компонента %d вне диапазона 0..255", s, i)
		}
		out[i] = uint8(n)
	}
	return RGB{R: out[0], G: out[1], B: out[2]}, nil
}

// MustParse как Parse, но паникует при ошибке. Только для констант.
func MustParse(s string) RGB {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String возвращает цвет в исходном формате "r, g, b"
func (c RGB) String() string {
	return fmt.Sprintf("%d, %d, %d", c.R, c.G, c.B)
}

// CSS возвращает цвет в формате rgb(r, g, b)
func (c RGB) CSS() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Hex возвращает цвет как 0xRRGGBB
func (c RGB) Hex() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Linear возвращает нормализованные компоненты RGBA (альфа = 1)
func (c RGB) Linear() [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, 1}
}

// MarshalJSON пишет цвет массивом [r, g, b]
func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]uint8{c.R, c.G, c.B})
}

// UnmarshalJSON принимает "r, g, b" или [r, g, b]
func (c *RGB) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var arr []int
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("цвет: ожидалась строка \"r, g, b\" или массив [r, g, b]")
	}
	if len(arr) != 3 {
		return fmt.Errorf("цвет: ожидалось 3 компоненты, получено %d", len(arr))
	}
	for i, n := range arr {
		if n < 0 || n > 255 {
			return fmt.Errorf("цвет: компонента %d вне диапазона 0..255", i)
		}
	}
	*c = RGB{R: uint8(arr[0]), G: uint8(arr[1]), B: uint8(arr[2])}
	return nil
}
