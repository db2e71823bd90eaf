package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	blobcore "popstudy/internal/blob/core"
	"popstudy/pkg/genomics"
	"popstudy/pkg/sourceapi"
	"slices"

	"github.com/google/uuid"
)

// DonorDistributionRequest counts donors grouped by a set of attributes.
type DonorDistributionRequest struct {
	ByAttributes []genomics.Vocabulary
	Meta         genomics.MetadataAttrs
	Region       genomics.RegionAttrs
	// Sources restricts the request to the named backends when non-empty.
	Sources []string
	// ExportDonors publishes the merged donor list and sets Result.DownloadURL.
	ExportDonors bool
}

// groupAttributes returns the sorted, de-duplicated group-by attributes
// without DONOR_ID.
func groupAttributes(by []genomics.Vocabulary) []genomics.Vocabulary {
	set := genomics.NewSet()
	for _, a := range by {
		if a != genomics.DonorID {
			set.Add(a)
		}
	}
	return set.Sorted()
}

// DonorDistribution returns one row per combination of the group-by values,
// every subset rolled up, with the number of distinct donors in DONORS.
func (c *Coordinator) DonorDistribution(ctx context.Context, req DonorDistributionRequest) (Result, error) {
	r := c.begin("donor_distribution")
	res, err := c.donorDistribution(ctx, r, req)
	return r.finish(ctx, res, err)
}

func (c *Coordinator) donorDistribution(ctx context.Context, r *run, req DonorDistributionRequest) (Result, error) {
	region, err := c.resolveRegion(ctx, r, req.Region, c.assemblyFor(req.Meta))
	if err != nil {
		return Result{}, err
	}
	targets, err := c.eligible(req.Meta, region, req.Sources)
	if err != nil {
		return Result{}, err
	}
	groupBy := groupAttributes(req.ByAttributes)
	cols := append(slices.Clone(groupBy), genomics.DonorID)

	tables, err := fanOut(ctx, r, targets, sourceName, func(ctx context.Context, s sourceapi.Source) (sourceapi.Table, error) {
		return s.Donors(ctx, sourceapi.DonorsRequest{
			Attributes: native(s.Capabilities(), cols),
			Meta:       req.Meta,
			Region:     region,
		})
	}, emptyTable)
	if err != nil {
		return Result{}, err
	}
	if err := requireData(r, tables); err != nil {
		return Result{}, err
	}
	donors := union(tables, cols)

	group := make([]int, len(groupBy))
	for i := range group {
		group[i] = i
	}
	rows, err := cube(donors, group, countDistinct(len(groupBy)))
	if err != nil {
		return Result{}, err
	}
	var dropped int
	if rows, dropped = dropSmallGroups(rows, len(groupBy), c.minGroupSize); dropped > 0 {
		r.notice(smallGroupNotice(dropped, c.minGroupSize))
	}
	res := Result{Columns: append(slices.Clone(groupBy), genomics.Donors), Rows: rows}
	if req.ExportDonors {
		url, err := c.exportDonors(ctx, cols, donors)
		switch {
		case errors.Is(err, errExportDisabled):
			r.notice("Donor list export is not available on this deployment.")
		case err != nil:
			return Result{}, err
		default:
			res.DownloadURL = url
		}
	}
	return res, nil
}

func smallGroupNotice(n, min int) string {
	return fmt.Sprintf("%d groups were removed from the output because they describe fewer than %d individuals.", n, min)
}

var errExportDisabled = errors.New("core: export store not configured")

// exportDonors writes rows as CSV and returns a presigned URL, or the object
// key when the store cannot presign.
func (c *Coordinator) exportDonors(ctx context.Context, cols []genomics.Vocabulary, rows [][]any) (string, error) {
	if c.exports == nil {
		return "", errExportDisabled
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.String()
	}
	_ = w.Write(header)
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, v := range row {
			record[i] = fmt.Sprint(v)
		}
		_ = w.Write(record)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode donor export: %w", err)
	}
	key := "donors/" + uuid.NewString() + ".csv"
	if _, err := c.exports.Put(ctx, key, bytes.NewReader(buf.Bytes()), blobcore.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"rows": fmt.Sprint(len(rows))},
	}); err != nil {
		return "", fmt.Errorf("store donor export: %w", err)
	}
	url, err := c.exports.PresignURL(ctx, key, blobcore.SignedURLOptions{Expiry: c.exportExpiry})
	if errors.Is(err, blobcore.ErrUnsupported) {
		return key, nil
	}
	if err != nil {
		return "", fmt.Errorf("presign donor export: %w", err)
	}
	return url, nil
}
