package adapter

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const gpayTransactionsCSV = `Time,Transaction ID,Description,Product,Payment method,Status,Amount
"15 Mar 2024, 10:30",GPAY001,Paid to Swiggy,Google Pay,HDFC Bank 1234,Completed,INR 250.00
"14 Mar 2024, 09:00",GPAY002,Paid to Amazon,Google Pay,HDFC Bank 1234,Pending,INR 1000.00
"13 Mar 2024, 08:00",GPAY003,Uber trip,Google Pay,HDFC Bank 1234,Completed,INR 180.00
"15 Mar 2024, 10:30",GPAY001,Paid to Swiggy,Google Pay,HDFC Bank 1234,Completed,INR 250.00
`

const gpayGroupExpensesJSON = `{"Group_expenses":[{"creation_time":"2024-02-10T12:00:00Z","creator":"Asha","group_name":"Flat","total_amount":"₹900.00","state":"ONGOING","title":"Groceries","items":[{"amount":"₹450.00","state":"PAID_RECEIVED","payer":"Asha"},{"amount":"₹450.00","state":"UNPAID","payer":"Ravi"}]}]}`

const gpayCashbackCSV = `Date,Currency,Amount,Description
2024-03-01,INR,25.00,Cashback on electricity bill
`

const gpayVouchersJSON = `{"Vouchers":[{"code":"FLAT50","details":"Flat ₹50 off","summary":"Food voucher","expiry_date":"2024-12-31"}]}`

const gpayActivityHTML = `<html><body><div class="mdl-grid">
<div class="outer-cell mdl-cell mdl-cell--12-col mdl-shadow--2dp"><div class="mdl-grid">
  <div class="header-cell mdl-cell mdl-cell--12-col"><p class="mdl-typography--title">Google Pay<br></p></div>
  <div class="content-cell mdl-cell mdl-cell--6-col mdl-typography--body-1">Paid ₹250.00 to Swiggy using Bank Account XXXXXX1234<br>Mar 15, 2024, 10:30:00 AM IST<br></div>
</div></div>
<div class="outer-cell mdl-cell mdl-cell--12-col mdl-shadow--2dp"><div class="mdl-grid">
  <div class="header-cell mdl-cell mdl-cell--12-col"><p class="mdl-typography--title">Google Pay<br></p></div>
  <div class="content-cell mdl-cell mdl-cell--6-col mdl-typography--body-1">Received ₹1,000.00 from Ravi<br>Mar 14, 2024, 9:00:00 PM IST<br></div>
</div></div>
</div></body></html>`

const bhimStructuredScript = `<script type="text/javascript">
var xmlData = '<UPITransactions app="BHIM">` +
	`<Transaction paymentId="P1" date="15/03/2024" time="10:15:00" amount="250.00" drCr="DR" status="SUCCESS" payeeName="Swiggy" bankName="SBI" payCollect="PAY"/>` +
	`<Transaction paymentId="P2" date="14/03/2024" time="09:00:00" amount="1000.00" drCr="CR" status="SUCCESS" payeeName="Ravi" bankName="SBI" payCollect="PAY"/>` +
	`<Transaction paymentId="P3" date="13/03/2024" time="08:00:00" amount="50.00" drCr="DR" status="FAILED" payeeName="Uber" bankName="SBI"/>` +
	`<Transaction paymentId="P4" date="12/03/2024" time="07:00:00" amount="75.00" drCr="DR" status="PENDING" payeeName="Ola" bankName="SBI"/>` +
	`<Transaction paymentId="P1" date="15/03/2024" time="10:15:00" amount="250.00" drCr="DR" status="SUCCESS" payeeName="Swiggy" bankName="SBI"/>` +
	`<Transaction paymentId="P5" date="11/03/2024" time="18:45:00" amount="1,299.00" drCr="DR" status="SUCCESS" payeeName="Amazon" bankName="SBI" payCollect="COLLECT"/>` +
	`</UPITransactions>';
</script>`

const bhimLegacyTable = `<table>
<tr><th>Date</th><th>Time</th><th>Payment ID</th><th>Bank Name</th><th>Name</th><th>Pay/Collect</th><th>DR/CR</th><th>Amount</th><th>Status</th></tr>
<tr><td>15/03/2024</td><td>10:15:00</td><td>L1</td><td>SBI</td><td>Swiggy</td><td>PAY</td><td>DR</td><td>₹250.00</td><td>SUCCESS</td></tr>
<tr><td>14/03/2024</td><td>09:00:00</td><td>L2</td><td>SBI</td><td>Ravi</td><td>PAY</td><td>CR</td><td>₹1,000.00</td><td>SUCCESS</td></tr>
<tr><td>13/03/2024</td><td>08:00:00</td><td>L3</td><td>SBI</td><td>Uber</td><td>PAY</td><td>DR</td><td>₹50.00</td><td>PENDING</td></tr>
<tr><td>15/03/2024</td><td>10:15:00</td><td>L1</td><td>SBI</td><td>Swiggy</td><td>PAY</td><td>DR</td><td>₹250.00</td><td>SUCCESS</td></tr>
<tr><td>12/03/2024</td><td>L9</td><td>SBI</td><td>Broken</td><td>PAY</td><td>DR</td><td>₹10.00</td><td>SUCCESS</td></tr>
<tr><td>11/03/2024</td><td>20:00:00</td><td>L4</td><td>SBI</td><td>Netflix</td><td>PAY</td><td>DR</td><td>₹649.00</td><td>SUCCESS</td></tr>
</table>`

var (
	bhimStructuredPage = "<html><head>" + bhimStructuredScript + "</head><body><h1>BHIM</h1><p>Transaction history</p></body></html>"
	bhimLegacyPage     = "<html><body><h2>Transaction History</h2>" + bhimLegacyTable + "</body></html>"
	bhimBothPage       = "<html><head>" + bhimStructuredScript + "</head><body><h1>BHIM</h1>" + bhimLegacyTable + "</body></html>"
)

const phonePeStatement = "Transaction Statement for 98XXXXXX10\n" +
	"Jan 01, 2024 - Jan 31, 2024\n" +
	"Date Transaction Details Type Amount\n" +
	"Jan 15, 2024 Paid to Swiggy DEBIT ₹250\n" +
	"10:15 am Transaction ID T2401151015\n" +
	"UTR No. 401512345678\n" +
	"Paid by XXXXXXXX1234\n" +
	"Jan 14, 2024 Received from Ravi CREDIT ₹1,000\n" +
	"09:00 pm Transaction ID T2401140900\n" +
	"UTR No. 401409001234\n" +
	"Credited to XXXXXXXX1234\n" +
	"Page 1 of 2\n" +
	"This is a system generated statement. For any queries contact support.phonepe.com" +
	pageBreak +
	"Jan 15, 2024 Paid to Swiggy DEBIT ₹250\n" +
	"10:15 am Transaction ID T2401151015\n" +
	"Jan 10, 2024 Paid to Uber India DEBIT ₹320.50\n" +
	"6:40 pm Transaction ID T2401101840\n" +
	"Page 2 of 2"

// phonePePDFPages is phonePeStatement as drawn in a real statement PDF.
// Helvetica has no rupee glyph, so amounts use the Rs prefix.
var phonePePDFPages = [][]string{
	{
		"Transaction Statement for 98XXXXXX10",
		"Date Transaction Details Type Amount",
		"Jan 15, 2024 Paid to Swiggy DEBIT Rs 250",
		"10:15 am Transaction ID T2401151015",
		"Paid by XXXXXXXX1234",
		"Jan 14, 2024 Received from Ravi CREDIT Rs 1,000",
		"09:00 pm Transaction ID T2401140900",
		"Page 1 of 2",
		"This is a system generated statement. For any queries contact support.phonepe.com",
	},
	{
		"Jan 10, 2024 Paid to Uber India DEBIT Rs 320.50",
		"6:40 pm Transaction ID T2401101840",
		"Page 2 of 2",
	},
}

// corruptZip carries the local file header signature and nothing usable.
var corruptZip = []byte("PK\x03\x04\x14\x00\x00\x00garbage that is not a zip archive")

// encryptedPDF is enough for the encryption sniff; it is not a valid PDF.
var encryptedPDF = []byte("%PDF-1.6\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R /Encrypt 2 0 R >>\n%%EOF\n")
