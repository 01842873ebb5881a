package extraction

// Page categories the classifier may emit. Only clinical records carry
// structured visit payloads; every other category is classified and passed
// through without detail extraction.
const (
	CategoryClinicalRecords    = "Clinical Records"
	CategoryDD214              = "DD214"
	CategoryPersonnelRecords   = "Military Personnel Records"
	CategoryLegalDocuments     = "Legal Documents"
	CategoryDecisionLetter     = "Decision Letter"
	CategoryNotificationLetter = "Notification Letter"
	CategoryFinancialDocuments = "Financial Documents"
	CategoryEducationMaterials = "Education Materials"
	CategoryCorrespondence     = "Correspondence"
	CategoryAwardLetter        = "Award Letter"
	CategoryDisabilityDocument = "Disability Application"
	CategoryUnclassified       = "Unclassified"
)

// knownCategories constrains the classifier output. Downstream stages
// key on these exact strings, so free-form category text would silently
// drop pages from the pipeline.
func knownCategories() []string {
	return []string{
		CategoryClinicalRecords,
		CategoryDD214,
		CategoryPersonnelRecords,
		CategoryLegalDocuments,
		CategoryDecisionLetter,
		CategoryNotificationLetter,
		CategoryFinancialDocuments,
		CategoryEducationMaterials,
		CategoryCorrespondence,
		CategoryAwardLetter,
		CategoryDisabilityDocument,
		CategoryUnclassified,
	}
}

// Diagnosis is one extracted problem/diagnosis line within a visit.
type Diagnosis struct {
	Name        string   `json:"diagnosis_name"`
	Medications []string `json:"medication_list"`
	Treatments  string   `json:"treatments"`
	Findings    string   `json:"findings"`
	Comments    string   `json:"doctor_comments"`
}

// Visit is one dated encounter extracted from a page. Visits are never
// persisted as rows; they exist to compute the in-service flag once and
// apply it to every child diagnosis.
type Visit struct {
	DateOfVisit          string      `json:"date_of_visit"`
	MedicalProfessionals []string    `json:"medical_professionals"`
	Diagnoses            []Diagnosis `json:"diagnosis"`
}

// ClinicalRecord is the structured payload extracted from a clinical page.
type ClinicalRecord struct {
	PatientName string  `json:"patient_name"`
	Visits      []Visit `json:"visits"`
}

// PageResult is what the extractor returns per page: the OCR text, the
// page's category, and, for clinical pages, the parsed record. A page whose
// classification or detail extraction failed carries Err instead of
// aborting the sibling pages.
type PageResult struct {
	Page     int             `json:"page"`
	Category string          `json:"category"`
	Details  *ClinicalRecord `json:"details,omitempty"`
	Err      string          `json:"error,omitempty"`
}

type pageClassification struct {
	PageNumber   int     `json:"page_number"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	DocumentDate string  `json:"document_date"`
}
