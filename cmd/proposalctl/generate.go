package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"proposal-generator/internal/address"
	"proposal-generator/internal/bios"
	"proposal-generator/internal/client"
	"proposal-generator/internal/engine"
	"proposal-generator/internal/extract"
	"proposal-generator/internal/fee"
	"proposal-generator/internal/model"
	"proposal-generator/internal/validation"
)

// formFile is the YAML form read by generate. Bios are ids in the order they
// should appear; fees are applied over the lines seeded from the mandates.
type formFile struct {
	model.FormState `yaml:",inline"`
	Bios            []string   `yaml:"bios"`
	Fees            []feeEntry `yaml:"fees"`
}

type feeEntry struct {
	Mandate model.ProposedMandate `yaml:"mandate"`
	Hours   *float64              `yaml:"hours"`
	Rate    *float64              `yaml:"rate"`
}

type generateOptions struct {
	formPath string
	document string
	choice   string
	format   string
	outDir   string
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Validate a form and download the project summary PDF or the proposal DOCX",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			path, err := runGenerate(ctx, newClient(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.formPath, "form", "f", "proposal.yaml", "YAML form file")
	cmd.Flags().StringVar(&opts.document, "document", "", "PDF or DOCX to extract the project address from")
	cmd.Flags().StringVar(&opts.choice, "select", "", "Extracted address to use, by 1-based index or exact text")
	cmd.Flags().StringVar(&opts.format, "format", "proposal", "Output: proposal (DOCX) or pdf")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Output directory")
	return cmd
}

func runGenerate(ctx context.Context, c *client.Client, opts generateOptions, out io.Writer) (string, error) {
	target := validation.TargetProposal
	switch opts.format {
	case "proposal", "docx":
	case "pdf":
		target = validation.TargetPDF
	default:
		return "", fmt.Errorf("unknown format %q", opts.format)
	}

	form, err := loadForm(opts.formPath)
	if err != nil {
		return "", err
	}

	coord := address.NewCoordinator(c)
	if opts.document != "" {
		if err := extractAddress(ctx, coord, opts, out); err != nil {
			return "", err
		}
	} else if err := coord.SetManualAddress(form.Address); err != nil {
		return "", err
	}

	cat, err := c.Catalog(ctx)
	if err != nil {
		return "", fmt.Errorf("load catalog: %w", err)
	}
	summary, err := buildFees(fee.CatalogFrom(cat.Mandates), form.ProposedMandates, form.Fees)
	if err != nil {
		return "", err
	}
	form.Fee = &summary

	var ids []string
	if target == validation.TargetProposal {
		available, err := c.ListBios(ctx)
		if err != nil {
			return "", fmt.Errorf("load bios: %w", err)
		}
		form.FormState.Bios = bios.Resolve(form.Bios, available)
		ids = bios.ToIDs(form.FormState.Bios)
	}

	addr := coord.EffectiveAddress()
	if err := validation.Check(form.FormState, addr, target); err != nil {
		return "", err
	}

	var doc *engine.Document
	if target == validation.TargetPDF {
		doc, err = c.GeneratePDF(ctx, pdfRequest(form.FormState, addr))
	} else {
		doc, err = c.GenerateProposal(ctx, proposalRequest(form.FormState, addr, ids))
	}
	if err != nil {
		return "", err
	}

	name := doc.Filename
	if name == "" {
		name = doc.ID + "." + opts.format
	}
	path := filepath.Join(opts.outDir, filepath.Base(name))
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func loadForm(path string) (*formFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form: %w", err)
	}
	var f formFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse form %s: %w", path, err)
	}
	return &f, nil
}

func extractAddress(ctx context.Context, coord *address.Coordinator, opts generateOptions, out io.Writer) error {
	data, err := os.ReadFile(opts.document)
	if err != nil {
		return err
	}
	candidates, err := coord.Upload(ctx, address.Document{
		Name:        filepath.Base(opts.document),
		ContentType: extract.Sniff(data, ""),
		Data:        data,
	})
	if err != nil {
		return err
	}
	for i, c := range candidates {
		fmt.Fprintf(out, "%d. %s\n", i+1, c)
	}

	if opts.choice == "" {
		return nil
	}
	choice := opts.choice
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(candidates) {
		choice = candidates[n-1]
	}
	if err := coord.Select(choice); err != nil {
		return fmt.Errorf("%w: %q", err, opts.choice)
	}
	return nil
}

// buildFees seeds one line per selected mandate and applies entries in
// order. Seeded lines without a matching entry are dropped when entries are
// given.
func buildFees(catalog fee.Catalog, selected []model.ProposedMandate, entries []feeEntry) (model.FeeSummary, error) {
	b := fee.NewBuilder(catalog.Mandates(selected))
	if len(entries) == 0 {
		return b.Summary(), nil
	}

	for i, e := range entries {
		if i >= len(b.Lines()) && !b.AddLine() {
			return model.FeeSummary{}, errors.New("fee lines need at least one proposed mandate")
		}
		if e.Mandate != "" {
			m, ok := catalog[e.Mandate]
			if !ok || !slices.Contains(selected, e.Mandate) {
				return model.FeeSummary{}, fmt.Errorf("fee line %d: mandate %q is not a proposed mandate", i+1, e.Mandate)
			}
			if err := b.SwitchMandate(i, m.ID); err != nil {
				return model.FeeSummary{}, err
			}
		}
		if err := b.UpdateLine(i, fee.LinePatch{Hours: e.Hours, Rate: e.Rate}); err != nil {
			return model.FeeSummary{}, err
		}
	}
	for len(b.Lines()) > len(entries) {
		if err := b.RemoveLine(len(b.Lines()) - 1); err != nil {
			return model.FeeSummary{}, err
		}
	}
	return b.Summary(), nil
}

func pdfRequest(f model.FormState, addr string) *model.GeneratePDFRequest {
	return &model.GeneratePDFRequest{
		ProjectName:          f.ProjectName,
		BillingEntity:        f.BillingEntity,
		Address:              addr,
		Date:                 f.Date,
		Fee:                  f.Fee,
		ClientEmail:          f.ClientEmail,
		ClientName:           f.ClientName,
		ClientCompanyAddress: f.ClientCompanyAddress,
		AssetClass:           f.AssetClass,
		ProjectDescription:   f.ProjectDescription,
		ProposedMandates:     f.ProposedMandates,
	}
}

func proposalRequest(f model.FormState, addr string, bioIDs []string) *model.GenerateProposalRequest {
	return &model.GenerateProposalRequest{
		ProjectName:          f.ProjectName,
		BillingEntity:        f.BillingEntity,
		Date:                 f.Date,
		ClientEmail:          f.ClientEmail,
		ClientName:           f.ClientName,
		ClientCompanyAddress: f.ClientCompanyAddress,
		AssetClass:           f.AssetClass,
		ProjectDescription:   f.ProjectDescription,
		Address:              addr,
		Fee:                  f.Fee,
		ProposedMandates:     f.ProposedMandates,
		ListOfServices:       f.ListOfServices,
		Bios:                 bioIDs,
	}
}
