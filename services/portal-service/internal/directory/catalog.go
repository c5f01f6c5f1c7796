package directory

import "strings"

// Service is an entry of the consultation and lab exam catalog.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Specialty   string `json:"specialty"`
	Available   bool   `json:"available"`
	Description string `json:"description"`
}

const SpecialtyLaboratory = "Laboratorio"

var catalog = []Service{
	{ID: "1", Name: "Consulta General", Specialty: "Medicina General", Available: true, Description: "Consulta con un médico general."},
	{ID: "2", Name: "Cardiología", Specialty: "Cardiología", Available: false, Description: "Evaluación del sistema cardiovascular."},
	{ID: "3", Name: "Dermatología", Specialty: "Dermatología", Available: true, Description: "Diagnóstico y tratamiento de problemas de la piel."},
	{ID: "4", Name: "Hemograma Completo", Specialty: SpecialtyLaboratory, Available: true, Description: "Análisis detallado de los componentes de la sangre."},
	{ID: "5", Name: "Análisis de Orina", Specialty: SpecialtyLaboratory, Available: true, Description: "Evaluación de la función renal e infecciones urinarias."},
	{ID: "6", Name: "Prueba de Glucosa", Specialty: SpecialtyLaboratory, Available: false, Description: "Medición de los niveles de glucosa en sangre."},
	{ID: "7", Name: "Perfil Lipídico", Specialty: SpecialtyLaboratory, Available: true, Description: "Medición de colesterol y triglicéridos en sangre."},
}

// Services filters the catalog the same way the doctor directory is filtered.
func Services(specialty, query string) []Service {
	specialty = normalizeSpecialty(specialty)
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Service, 0, len(catalog))
	for _, s := range catalog {
		if specialty != "" && !strings.EqualFold(s.Specialty, specialty) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(s.Name), query) {
			continue
		}
		out = append(out, s)
	}
	return out
}
