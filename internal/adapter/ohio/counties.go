package ohio

import (
	"time"

	"github.com/law-makers/taxcert/internal/acquire"
	"github.com/law-makers/taxcert/internal/taxes"
)

// Payment tables differ between county deployments of the platform.
var (
	receiptPayments = PaymentTable{
		Rows:       `table.sortableTable[title="Tax Payments"] tbody tr`,
		DateCol:    0,
		YearCol:    -1,
		ReceiptCol: 1,
		AmountCol:  2,
	}
	titledPayments = PaymentTable{
		Rows:       `table[title="Tax Payments"] tbody tr`,
		DateCol:    0,
		YearCol:    -1,
		ReceiptCol: 1,
		AmountCol:  2,
	}
	yearPayments = PaymentTable{
		Rows:       `#taxPayments tbody tr`,
		DateCol:    0,
		YearCol:    1,
		ReceiptCol: -1,
		AmountCol:  2,
	}
	sectionPayments = PaymentTable{
		Rows:       `#TaxPayments table tbody tr`,
		DateCol:    0,
		YearCol:    -1,
		ReceiptCol: 1,
		AmountCol:  2,
	}
)

func halves(firstMonth time.Month, firstDay int, secondMonth time.Month, secondDay int) taxes.Calendar {
	// Ohio bills are payable the year after assessment.
	return taxes.SemiAnnual(1,
		taxes.DueDay{Month: firstMonth, Day: firstDay},
		taxes.DueDay{Month: secondMonth, Day: secondDay})
}

// Counties returns the supported county deployments.
func Counties() []County {
	return []County{
		{
			Slug:            "mercer",
			Name:            "Mercer County",
			URL:             "https://auditor.mercercountyohio.gov/Parcel?Parcel=%s",
			TaxingAuthority: "Mercer County Auditor, 220 W Livingston St, Celina, OH 45822, Ph: (419) 586-7711",
			Calendar:        halves(time.February, 21, time.July, 21),
			Payments:        receiptPayments,
		},
		{
			Slug:            "pickaway",
			Name:            "Pickaway County",
			URL:             "https://auditor.pickawaycountyohio.gov/Parcel?Parcel=%s",
			TaxingAuthority: "Pickaway County Auditor, 207 S Court St, Circleville, OH 43113",
			Calendar:        halves(time.February, 21, time.July, 18),
			Payments:        yearPayments,
			Matcher:         taxes.MatchChronological,
		},
		{
			Slug:            "darke",
			Name:            "Darke County",
			URL:             "https://darkecountyrealestate.org/Parcel?Parcel=%s",
			TaxingAuthority: "Darke County Treasurer, 504 S. Broadway, Greenville, OH 45331, Ph: 937-547-7365",
			Calendar:        halves(time.February, 21, time.July, 18),
			Payments:        titledPayments,
		},
		{
			Slug:            "morrow",
			Name:            "Morrow County",
			URL:             "https://auditor.co.morrow.oh.us/Parcel?Parcel=%s",
			TaxingAuthority: "Morrow County Treasurer, 48 E High St, Mount Gilead, OH 43338, Ph: 419-947-5010",
			Calendar:        halves(time.January, 31, time.July, 20),
			Payments:        titledPayments,
		},
		{
			Slug:            "madison",
			Name:            "Madison County",
			URL:             "https://auditor.co.madison.oh.us/Parcel?Parcel=%s",
			TaxingAuthority: "Madison County Auditor, 1 N. Main St., London, OH 43140, Ph: 740-852-9446",
			Calendar:        halves(time.February, 14, time.July, 14),
			Payments:        sectionPayments,
		},
		{
			Slug:            "paulding",
			Name:            "Paulding County",
			URL:             "https://www.pauldingcountyauditor.com/Parcel?Parcel=%s",
			TaxingAuthority: "Paulding County Auditor",
			Calendar:        halves(time.February, 5, time.July, 16),
			Payments:        titledPayments,
		},
	}
}

// Adapters builds one adapter per supported county.
func Adapters() []acquire.Adapter {
	counties := Counties()
	out := make([]acquire.Adapter, 0, len(counties))
	for _, c := range counties {
		out = append(out, New(c))
	}
	return out
}
