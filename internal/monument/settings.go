package monument

import (
	"fmt"

	"github.com/annel0/monument/internal/palette"
)

// Ключи цветов настроек. Используются классификатором ячеек.
const (
	ColorBackground   = "background"
	ColorGlobalLight  = "globalLight"
	ColorAmbientLight = "ambientLight"
	ColorCube         = "cube"
	ColorTale         = "tale"
	ColorStairs       = "stairs"
	ColorPointLight   = "pointLight"
	ColorPillar       = "pillar"
)

// RequiredKeys ключи settings, без которых запуск невозможен
var RequiredKeys = []string{
	"offsetY",
	ColorBackground,
	ColorGlobalLight,
	ColorAmbientLight,
	ColorCube,
	ColorTale,
	ColorStairs,
	ColorPointLight,
	"pointLightScale",
	ColorPillar,
}

// Settings параметры отрисовки. Не меняются после загрузки.
type Settings struct {
	PerspectiveCamera bool    `json:"perspectiveCamera"`
	AutoRotate        bool    `json:"autoRotate"`
	RotationSpeed     float64 `json:"rotationSpeed"`
	OffsetY           float64 `json:"offsetY"`
	// LayersTopDown: слой 0 в хранении - верхний (как в исходных данных монумента)
	LayersTopDown bool `json:"layersTopDown,omitempty"`

	Background   palette.RGB `json:"background"`
	GlobalLight  palette.RGB `json:"globalLight"`
	AmbientLight palette.RGB `json:"ambientLight"`
	Cube         palette.RGB `json:"cube"`
	Tale         palette.RGB `json:"tale"`
	Stairs       palette.RGB `json:"stairs"`
	PointLight   palette.RGB `json:"pointLight"`
	Pillar       palette.RGB `json:"pillar"`

	PointLightScale float64 `json:"pointLightScale"`
}

// Color возвращает цвет по ключу настроек
func (s *Settings) Color(key string) (palette.RGB, error) {
	switch key {
	case ColorBackground:
		return s.Background, nil
	case ColorGlobalLight:
		return s.GlobalLight, nil
	case ColorAmbientLight:
		return s.AmbientLight, nil
	case ColorCube:
		return s.Cube, nil
	case ColorTale:
		return s.Tale, nil
	case ColorStairs:
		return s.Stairs, nil
	case ColorPointLight:
		return s.PointLight, nil
	case ColorPillar:
		return s.Pillar, nil
	default:
		return palette.RGB{}, &MissingKeyError{Key: key}
	}
}

// MissingKeyError в настройках отсутствует обязательный ключ
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("monument settings: missing required key %q", e.Key)
}

// Number возвращает числовой параметр настроек по ключу
func (s *Settings) Number(key string) (float64, error) {
	switch key {
	case "offsetY":
		return s.OffsetY, nil
	case "rotationSpeed":
		return s.RotationSpeed, nil
	case "pointLightScale":
		return s.PointLightScale, nil
	default:
		return 0, &MissingKeyError{Key: key}
	}
}
