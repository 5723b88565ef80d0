package genai

// Wire types for the generativelanguage v1beta REST surface. Only the fields
// the server reads or writes are declared.

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	CandidateCount     int      `json:"candidateCount,omitempty"`
}

type generateContentRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type safetyRating struct {
	Category string `json:"category,omitempty"`
	Blocked  bool   `json:"blocked,omitempty"`
}

type candidate struct {
	Content       content        `json:"content"`
	FinishReason  string         `json:"finishReason,omitempty"`
	SafetyRatings []safetyRating `json:"safetyRatings,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

// Imagen prediction endpoint.

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string        `json:"prompt"`
	Image  *predictImage `json:"image,omitempty"`
}

type predictImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
}

type predictParameters struct {
	SampleCount    int    `json:"sampleCount,omitempty"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
	OutputMimeType string `json:"outputMimeType,omitempty"`
}

type predictResponse struct {
	Predictions []prediction `json:"predictions"`
}

type prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
}

// Veo long-running operation shape. Raw payloads are round-tripped through
// the operation store, so the struct only surfaces what the poller reads.

type googleStatus struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

type videoOperationPayload struct {
	Name     string                  `json:"name"`
	Done     bool                    `json:"done,omitempty"`
	Error    *googleStatus           `json:"error,omitempty"`
	Response *videoOperationResponse `json:"response,omitempty"`
}

type videoOperationResponse struct {
	GeneratedVideos       []generatedVideo       `json:"generatedVideos,omitempty"`
	GenerateVideoResponse *generateVideoResponse `json:"generateVideoResponse,omitempty"`
}

type generateVideoResponse struct {
	GeneratedSamples []generatedVideo `json:"generatedSamples,omitempty"`
}

type generatedVideo struct {
	Video *videoRef `json:"video,omitempty"`
}

type videoRef struct {
	URI string `json:"uri,omitempty"`
}

type apiErrorResponse struct {
	Error googleStatus `json:"error"`
}

func (p *videoOperationPayload) firstVideoURI() string {
	if p.Response == nil {
		return ""
	}
	for _, v := range p.Response.GeneratedVideos {
		if v.Video != nil && v.Video.URI != "" {
			return v.Video.URI
		}
	}
	if p.Response.GenerateVideoResponse != nil {
		for _, v := range p.Response.GenerateVideoResponse.GeneratedSamples {
			if v.Video != nil && v.Video.URI != "" {
				return v.Video.URI
			}
		}
	}
	return ""
}
