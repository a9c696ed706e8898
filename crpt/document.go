/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package crpt

// Document is a document submitted to the CRPT API.
type Document struct {
	Description        *Description `json:"description"`
	DocumentID         string       `json:"doc_id"`
	DocumentStatus     string       `json:"doc_status"`
	DocumentType       string       `json:"doc_type"`
	ImportRequest      bool         `json:"importRequest"`
	OwnerInn           string       `json:"owner_inn"`
	ParticipantInn     string       `json:"participant_inn"`
	ProducerInn        string       `json:"producer_inn"`
	ProductionDate     string       `json:"production_date"`
	ProductionType     string       `json:"production_type"`
	Products           []Product    `json:"products"`
	RegistrationDate   string       `json:"reg_date"`
	RegistrationNumber string       `json:"reg_number"`
}

// Description holds the document's participant info.
type Description struct {
	ParticipantInn string `json:"participantInn"`
}

// Product is a single product item of the document.
type Product struct {
	CertificateDocument       string `json:"certificate_document"`
	CertificateDocumentDate   string `json:"certificate_document_date"`
	CertificateDocumentNumber string `json:"certificate_document_number"`
	OwnerInn                  string `json:"owner_inn"`
	ProducerInn               string `json:"producer_inn"`
	ProductionDate            string `json:"production_date"`
	TnvedCode                 string `json:"tnved_code"`
	UitCode                   string `json:"uit_code"`
	UituCode                  string `json:"uitu_code"`
}
