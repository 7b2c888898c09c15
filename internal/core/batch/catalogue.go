package batch

import "strings"

var deviceTypes = []string{"alexa", "router", "smart_tv", "smart_home"}

var commonErrors = map[string][]string{
	"alexa": {
		"Error E01 - No responde a comandos de voz",
		"Error E02 - Problemas de conexión WiFi",
		"Error E03 - Fallo de comunicación con otros dispositivos",
		"Error E04 - No reproduce música",
		"Error E05 - Luz roja parpadeante",
		"Error E06 - No se enciende",
		"Error E07 - Audio distorsionado",
		"Error E08 - No reconoce el idioma",
		"Error E09 - Problemas con Bluetooth",
		"Error E10 - No actualiza firmware",
	},
	"router": {
		"Error R01 - Sin conexión a Internet",
		"Error R02 - WiFi intermitente",
		"Error R03 - Velocidad lenta",
		"Error R04 - No asigna IP (DHCP)",
		"Error R05 - LED rojo/naranja",
		"Error R06 - No accede al panel admin",
		"Error R07 - Dispositivos no conectan",
		"Error R08 - Reinicio constante",
		"Error R09 - Puerto Ethernet no funciona",
		"Error R10 - Contraseña WiFi no acepta",
	},
	"smart_tv": {
		"Error T01 - No enciende",
		"Error T02 - Sin señal HDMI",
		"Error T03 - No conecta a WiFi",
		"Error T04 - Apps no cargan",
		"Error T05 - Audio sin sincronizar",
		"Error T06 - Pantalla negra con sonido",
		"Error T07 - Control remoto no responde",
		"Error T08 - Rayas o líneas en pantalla",
		"Error T09 - No detecta USB",
		"Error T10 - Actualización fallida",
	},
	"smart_home": {
		"Error S01 - Dispositivo no empareja",
		"Error S02 - Desconexión frecuente",
		"Error S03 - No responde a automatizaciones",
		"Error S04 - Sensor no reporta datos",
		"Error S05 - Batería se agota rápido",
		"Error S06 - LED no funciona",
		"Error S07 - Incompatibilidad con hub",
		"Error S08 - No aparece en app",
		"Error S09 - Retraso en ejecución",
		"Error S10 - Firmware corrupto",
	},
}

// DeviceTypes lists the device families with a known error catalogue.
func DeviceTypes() []string {
	out := make([]string, len(deviceTypes))
	copy(out, deviceTypes)
	return out
}

// CommonErrors returns the typical error descriptions of a device type, or nil if unknown.
func CommonErrors(deviceType string) []string {
	errs, ok := commonErrors[strings.ToLower(strings.TrimSpace(deviceType))]
	if !ok {
		return nil
	}
	out := make([]string, len(errs))
	copy(out, errs)
	return out
}
