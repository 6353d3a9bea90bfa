// Package risk implements the FINDRISK diabetes risk score.
package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Input holds one complete FINDRISK questionnaire. Genero comes from the
// patient record, everything else from the screening form.
type Input struct {
	FechaNacimiento          time.Time
	Genero                   string // masculino | femenino
	Peso                     float64
	Talla                    float64
	PerimetroAbdominal       float64
	ActividadFisica          string // si | no
	FrecuenciaFrutasVerduras string // diariamente | no_diariamente
	MedicamentosHipertension string // si | no
	AzucarAltoDetectado      string // si | no
	AntecedentesFamiliares   string // no | abuelos_tios_primos | padres_hermanos_hijos
}

// Result carries the derived IMC, the eight component scores and the
// interpretation of their sum.
type Result struct {
	Edad                int            `json:"edad"`
	IMC                 float64        `json:"imc"`
	PuntajeEdad         int            `json:"puntaje_edad"`
	PuntajeIMC          int            `json:"puntaje_imc"`
	PuntajePerimetro    int            `json:"puntaje_perimetro"`
	PuntajeActividad    int            `json:"puntaje_actividad_fisica"`
	PuntajeFrutas       int            `json:"puntaje_frutas_verduras"`
	PuntajeMedicamentos int            `json:"puntaje_medicamentos"`
	PuntajeAzucar       int            `json:"puntaje_azucar_alto"`
	PuntajeAntecedentes int            `json:"puntaje_antecedentes"`
	PuntajeFinal        int            `json:"puntaje_final"`
	Interpretacion      Interpretacion `json:"interpretacion"`
}

// Interpretacion maps a final score to its risk tier.
type Interpretacion struct {
	Nivel       string `json:"nivel"`
	Riesgo      string `json:"riesgo"`
	Descripcion string `json:"descripcion"`
}

// ValidationError reports every out-of-range or non-enumerated field.
type ValidationError map[string]string

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "campos invalidos: " + strings.Join(fields, ", ")
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate checks every field against its domain. A non-nil return means the
// input must not be scored.
func Validate(in Input) ValidationError {
	errs := ValidationError{}
	if in.Peso < 1 || in.Peso > 300 {
		errs["peso"] = "el peso debe estar entre 1 y 300 kg"
	}
	if in.Talla < 50 || in.Talla > 250 {
		errs["talla"] = "la talla debe estar entre 50 y 250 cm"
	}
	if in.PerimetroAbdominal < 30 || in.PerimetroAbdominal > 200 {
		errs["perimetro_abdominal"] = "el perimetro abdominal debe estar entre 30 y 200 cm"
	}
	if !oneOf(in.Genero, "masculino", "femenino") {
		errs["genero"] = "el genero debe ser masculino o femenino"
	}
	if !oneOf(in.ActividadFisica, "si", "no") {
		errs["actividad_fisica"] = "la actividad fisica debe ser si o no"
	}
	if !oneOf(in.FrecuenciaFrutasVerduras, "diariamente", "no_diariamente") {
		errs["frecuencia_frutas_verduras"] = "la frecuencia debe ser diariamente o no_diariamente"
	}
	if !oneOf(in.MedicamentosHipertension, "si", "no") {
		errs["medicamentos_hipertension"] = "los medicamentos deben ser si o no"
	}
	if !oneOf(in.AzucarAltoDetectado, "si", "no") {
		errs["azucar_alto_detectado"] = "el azucar alto debe ser si o no"
	}
	if !oneOf(in.AntecedentesFamiliares, "no", "abuelos_tios_primos", "padres_hermanos_hijos") {
		errs["antecedentes_familiares"] = "antecedentes invalidos"
	}
	if in.FechaNacimiento.IsZero() {
		errs["fecnacimiento"] = "la fecha de nacimiento es requerida"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ComputeScore validates the input and computes all component scores, the
// final score and its interpretation. now is used only to derive the age.
func ComputeScore(in Input, now time.Time) (*Result, error) {
	if errs := Validate(in); errs != nil {
		return nil, errs
	}

	edad := Edad(in.FechaNacimiento, now)
	imc := CalcularIMC(in.Peso, in.Talla)

	r := &Result{
		Edad:                edad,
		IMC:                 imc,
		PuntajeEdad:         PuntajeEdad(edad),
		PuntajeIMC:          PuntajeIMC(imc),
		PuntajePerimetro:    PuntajePerimetro(in.PerimetroAbdominal, in.Genero),
		PuntajeActividad:    PuntajeActividad(in.ActividadFisica),
		PuntajeFrutas:       PuntajeFrutas(in.FrecuenciaFrutasVerduras),
		PuntajeMedicamentos: PuntajeMedicamentos(in.MedicamentosHipertension),
		PuntajeAzucar:       PuntajeAzucar(in.AzucarAltoDetectado),
		PuntajeAntecedentes: PuntajeAntecedentes(in.AntecedentesFamiliares),
	}
	r.PuntajeFinal = r.PuntajeEdad + r.PuntajeIMC + r.PuntajePerimetro +
		r.PuntajeActividad + r.PuntajeFrutas + r.PuntajeMedicamentos +
		r.PuntajeAzucar + r.PuntajeAntecedentes
	r.Interpretacion = Interpretar(r.PuntajeFinal)
	return r, nil
}

// Edad returns completed years between birth and now.
func Edad(birth, now time.Time) int {
	edad := now.Year() - birth.Year()
	if birth.YearDay() > now.YearDay() {
		edad--
	}
	return edad
}

// CalcularIMC returns weight/height² rounded to 2 decimals, with talla in cm.
func CalcularIMC(peso, talla float64) float64 {
	m := talla / 100
	return math.Round(peso/(m*m)*100) / 100
}

func PuntajeEdad(edad int) int {
	switch {
	case edad < 45:
		return 0
	case edad <= 54:
		return 2
	case edad <= 64:
		return 3
	default:
		return 4
	}
}

func PuntajeIMC(imc float64) int {
	switch {
	case imc < 25:
		return 0
	case imc < 30:
		return 1
	default:
		return 3
	}
}

func PuntajePerimetro(perimetro float64, genero string) int {
	if genero == "masculino" {
		switch {
		case perimetro < 94:
			return 0
		case perimetro <= 102:
			return 3
		default:
			return 4
		}
	}
	switch {
	case perimetro < 80:
		return 0
	case perimetro <= 88:
		return 3
	default:
		return 4
	}
}

func PuntajeActividad(actividad string) int {
	if actividad == "no" {
		return 2
	}
	return 0
}

func PuntajeFrutas(frecuencia string) int {
	if frecuencia == "no_diariamente" {
		return 1
	}
	return 0
}

func PuntajeMedicamentos(medicamentos string) int {
	if medicamentos == "si" {
		return 2
	}
	return 0
}

func PuntajeAzucar(azucar string) int {
	if azucar == "si" {
		return 5
	}
	return 0
}

func PuntajeAntecedentes(antecedentes string) int {
	switch antecedentes {
	case "abuelos_tios_primos":
		return 3
	case "padres_hermanos_hijos":
		return 5
	default:
		return 0
	}
}

func descripcion(nivel string) string {
	return fmt.Sprintf("Riesgo %s de desarrollar diabetes tipo 2 en los próximos 10 años", nivel)
}

// Interpretar maps the final score to its tier.
func Interpretar(puntaje int) Interpretacion {
	switch {
	case puntaje < 7:
		return Interpretacion{Nivel: "Bajo", Riesgo: "1%", Descripcion: descripcion("bajo")}
	case puntaje <= 11:
		return Interpretacion{Nivel: "Ligeramente elevado", Riesgo: "4%", Descripcion: descripcion("ligeramente elevado")}
	case puntaje <= 14:
		return Interpretacion{Nivel: "Moderado", Riesgo: "17%", Descripcion: descripcion("moderado")}
	case puntaje <= 20:
		return Interpretacion{Nivel: "Alto", Riesgo: "33%", Descripcion: descripcion("alto")}
	default:
		return Interpretacion{Nivel: "Muy alto", Riesgo: "50%", Descripcion: descripcion("muy alto")}
	}
}
