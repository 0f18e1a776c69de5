package models

// SensorReading is one sample of the field sensor.
// Water level, humidity and soil moisture are percentages in [0,100]; temperature is °C.
type SensorReading struct {
	WaterLevel   float64 `json:"water_level"`
	Humidity     float64 `json:"humidity"`
	Temperature  float64 `json:"temperature"`
	SoilMoisture float64 `json:"soil_moisture"`
}
