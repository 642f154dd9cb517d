package handler

import (
	"time"

	"faraid/internal/inheritance/engine"
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
	"faraid/internal/inheritance/service"
)

// ShareResponse is one line of a distribution. Fractions are "n/d" strings and
// amounts are decimal strings.
type ShareResponse struct {
	Key              string `json:"key"`
	Name             string `json:"name"`
	ArabicName       string `json:"arabic_name"`
	Classification   string `json:"classification"`
	Count            int    `json:"count"`
	Fraction         string `json:"fraction"`
	OriginalFraction string `json:"original_fraction"`
	Percent          string `json:"percent"`
	Units            int64  `json:"units,omitempty"`
	Amount           string `json:"amount"`
	AmountPerPerson  string `json:"amount_per_person"`
	Reason           string `json:"reason,omitempty"`
}

type BlockedHeirResponse struct {
	Heir      string `json:"heir"`
	Name      string `json:"name"`
	BlockedBy string `json:"blocked_by"`
	Reason    string `json:"reason"`
}

type EstateResponse struct {
	Total    string `json:"total"`
	Funeral  string `json:"funeral"`
	Debts    string `json:"debts"`
	Will     string `json:"will"`
	Currency string `json:"currency"`
}

// ResultResponse is a successful distribution.
type ResultResponse struct {
	Success               bool                  `json:"success"`
	Madhab                string                `json:"madhab"`
	MadhabName            string                `json:"madhab_name"`
	Estate                EstateResponse        `json:"estate"`
	NetEstate             string                `json:"net_estate"`
	Heirs                 map[string]int        `json:"heirs"`
	Asl                   int64                 `json:"asl"`
	FinalBase             int64                 `json:"final_base"`
	AwlApplied            bool                  `json:"awl_applied"`
	AwlRatio              string                `json:"awl_ratio,omitempty"`
	RaddApplied           bool                  `json:"radd_applied"`
	BloodRelativesApplied bool                  `json:"blood_relatives_applied"`
	Shares                []ShareResponse       `json:"shares"`
	SpecialCases          []models.SpecialCase  `json:"special_cases"`
	BlockedHeirs          []BlockedHeirResponse `json:"blocked_heirs"`
	MadhabNotes           []string              `json:"madhab_notes"`
	Warnings              []string              `json:"warnings"`
	Steps                 []models.Step         `json:"steps"`
	Confidence            float64               `json:"confidence"`
}

// FailureResponse is the 422 body for a calculation the engine rejected.
type FailureResponse struct {
	Success    bool     `json:"success"`
	Kind       string   `json:"kind"`
	Errors     []string `json:"errors"`
	Madhab     string   `json:"madhab,omitempty"`
	MadhabName string   `json:"madhab_name,omitempty"`
}

type CalculateResponse struct {
	ResultResponse
	ID        string  `json:"id"`
	Saved     bool    `json:"saved"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

type CompareEntryResponse struct {
	Madhab  string           `json:"madhab"`
	Result  *ResultResponse  `json:"result,omitempty"`
	Failure *FailureResponse `json:"failure,omitempty"`
}

type CompareResponse struct {
	Entries     []CompareEntryResponse    `json:"entries"`
	Differences []service.ShareDifference `json:"differences"`
	ElapsedMS   float64                   `json:"elapsed_ms"`
}

type HeirResponse struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ArabicName  string `json:"arabic_name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Max         int    `json:"max,omitempty"`
}

// HistoryItemResponse summarizes a saved calculation in a listing.
type HistoryItemResponse struct {
	ID         string    `json:"id"`
	Madhab     string    `json:"madhab"`
	NetEstate  string    `json:"net_estate"`
	Currency   string    `json:"currency"`
	ShareCount int       `json:"share_count"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Records []HistoryItemResponse `json:"records"`
}

type RecordResponse struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	ElapsedMS float64        `json:"elapsed_ms"`
	Result    ResultResponse `json:"result"`
}

// FromResult converts an engine result to its HTTP form.
func FromResult(res *models.Result) ResultResponse {
	out := ResultResponse{
		Success:    true,
		Madhab:     string(res.Madhab),
		MadhabName: res.MadhabName,
		Estate: EstateResponse{
			Total:    res.Estate.Total.String(),
			Funeral:  res.Estate.Funeral.String(),
			Debts:    res.Estate.Debts.String(),
			Will:     res.Estate.Will.String(),
			Currency: res.Estate.Currency,
		},
		NetEstate:             res.NetEstate.String(),
		Heirs:                 make(map[string]int, len(res.Heirs)),
		Asl:                   res.Asl,
		FinalBase:             res.FinalBase,
		AwlApplied:            res.AwlApplied,
		RaddApplied:           res.RaddApplied,
		BloodRelativesApplied: res.BloodRelativesApplied,
		Shares:                make([]ShareResponse, 0, len(res.Shares)),
		SpecialCases:          nonNil(res.SpecialCases),
		BlockedHeirs:          make([]BlockedHeirResponse, 0, len(res.BlockedHeirs)),
		MadhabNotes:           nonNil(res.MadhabNotes),
		Warnings:              nonNil(res.Warnings),
		Steps:                 nonNil(res.Steps),
		Confidence:            res.Confidence,
	}
	if res.AwlRatio != nil {
		out.AwlRatio = res.AwlRatio.String()
	}
	for h, n := range res.Heirs {
		out.Heirs[h.String()] = n
	}
	for _, s := range res.Shares {
		out.Shares = append(out.Shares, ShareResponse{
			Key:              string(s.Key),
			Name:             s.Name,
			ArabicName:       s.Key.ArabicName(),
			Classification:   string(s.Classification),
			Count:            s.Count,
			Fraction:         s.Fraction.String(),
			OriginalFraction: s.OriginalFraction.String(),
			Percent:          s.Percent(),
			Units:            s.Units,
			Amount:           s.Amount.String(),
			AmountPerPerson:  s.AmountPerPerson.String(),
			Reason:           s.Reason,
		})
	}
	for _, b := range res.BlockedHeirs {
		out.BlockedHeirs = append(out.BlockedHeirs, BlockedHeirResponse{
			Heir:      b.Heir.String(),
			Name:      b.Heir.Name(),
			BlockedBy: b.BlockedBy,
			Reason:    b.Reason,
		})
	}
	return out
}

func FromFailure(f *engine.Failure) FailureResponse {
	return FailureResponse{
		Success:    false,
		Kind:       string(f.Kind),
		Errors:     nonNil(f.Messages),
		Madhab:     string(f.Madhab),
		MadhabName: f.MadhabName,
	}
}

func FromCalculation(c *service.Calculation) CalculateResponse {
	return CalculateResponse{
		ResultResponse: FromResult(c.Result),
		ID:             c.ID,
		Saved:          c.Saved,
		ElapsedMS:      c.ElapsedMS,
	}
}

func FromComparison(c *service.Comparison) CompareResponse {
	out := CompareResponse{
		Entries:     make([]CompareEntryResponse, 0, len(c.Entries)),
		Differences: nonNil(c.Differences),
		ElapsedMS:   c.ElapsedMS,
	}
	for _, e := range c.Entries {
		entry := CompareEntryResponse{Madhab: string(e.Madhab)}
		if e.Result != nil {
			res := FromResult(e.Result)
			entry.Result = &res
		}
		if e.Failure != nil {
			f := FromFailure(e.Failure)
			entry.Failure = &f
		}
		out.Entries = append(out.Entries, entry)
	}
	return out
}

func FromHeirs(heirs []fiqh.Heir) []HeirResponse {
	out := make([]HeirResponse, 0, len(heirs))
	for _, h := range heirs {
		out = append(out, HeirResponse{
			Key:         h.String(),
			Name:        h.Name(),
			ArabicName:  h.ArabicName(),
			Description: h.Description(),
			Category:    string(h.Category()),
			Max:         h.Max(),
		})
	}
	return out
}

func FromRecords(records []*models.Record) HistoryResponse {
	out := HistoryResponse{Records: make([]HistoryItemResponse, 0, len(records))}
	for _, rec := range records {
		item := HistoryItemResponse{
			ID:        rec.ID,
			Madhab:    string(rec.Madhab),
			CreatedAt: rec.CreatedAt,
		}
		if rec.Result != nil {
			item.NetEstate = rec.Result.NetEstate.String()
			item.Currency = rec.Result.Estate.Currency
			item.ShareCount = len(rec.Result.Shares)
			item.Confidence = rec.Result.Confidence
		}
		out.Records = append(out.Records, item)
	}
	return out
}

func FromRecord(rec *models.Record) RecordResponse {
	return RecordResponse{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		ElapsedMS: rec.ElapsedMS,
		Result:    FromResult(rec.Result),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
