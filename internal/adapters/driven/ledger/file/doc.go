// Package file persists the progress ledger as two append-only CSV files,
// one line per resolved accession:
//
//	ERZ2000000,ftp.sra.ebi.ac.uk/vol1/ERZ200/ERZ2000000/sample.vcf.gz
//
// Files are only ever appended to. Reading tolerates blank lines, duplicate
// accessions and a final line cut short by a crash.
package file
