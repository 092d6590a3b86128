package documents

import (
	"time"

	"answerpath-backend/internal/questions"
)

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID   string     `json:"documentId"`
	Title        string     `json:"title"`
	FileType     string     `json:"fileType"`
	SizeBytes    int64      `json:"sizeBytes"`
	Status       string     `json:"status"`
	StatusDetail string     `json:"statusDetail,omitempty"`
	UploadedAt   time.Time  `json:"uploadedAt"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty"`
	Report       any        `json:"report,omitempty"`
}

// QuestionResponse is the outward-facing representation of an extracted question.
type QuestionResponse struct {
	QuestionID      string    `json:"questionId"`
	Text            string    `json:"text"`
	Context         string    `json:"context,omitempty"`
	PageNumber      *int      `json:"pageNumber"`
	ConfidenceScore float64   `json:"confidenceScore"`
	CreatedAt       time.Time `json:"createdAt"`
}

// DocumentDetailResponse adds the extracted questions to a document.
type DocumentDetailResponse struct {
	DocumentResponse
	Questions []QuestionResponse `json:"questions"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:   doc.ID,
		Title:        doc.Title,
		FileType:     string(doc.FileType),
		SizeBytes:    doc.SizeBytes,
		Status:       string(doc.Status),
		StatusDetail: doc.StatusDetail,
		UploadedAt:   doc.UploadedAt,
		ProcessedAt:  doc.ProcessedAt,
		Report:       doc.Metadata[MetadataProcessingKey],
	}
}

func toDetailResponse(doc Document, qs []questions.Question) DocumentDetailResponse {
	out := DocumentDetailResponse{
		DocumentResponse: toResponse(doc),
		Questions:        make([]QuestionResponse, 0, len(qs)),
	}
	for _, q := range qs {
		out.Questions = append(out.Questions, QuestionResponse{
			QuestionID:      q.ID,
			Text:            q.Text,
			Context:         q.Context,
			PageNumber:      q.PageNumber,
			ConfidenceScore: q.ConfidenceScore,
			CreatedAt:       q.CreatedAt,
		})
	}
	return out
}
