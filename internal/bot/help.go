package bot

const helpText = `📖 *Panduan Kantong*

*Catat transaksi*
• "makan siang 25rb"
• "gaji 5jt ke rekening"
• "beli bensin 50k pakai cash kemarin"

*Saldo & kantong*
• "saldo" / "saldo tabungan"
• "buat kantong tabungan tipe savings"
• "kantong tabungan jangan dihitung"
• "hapus kantong dompet"
• "daftar kantong"
• "saldo cash sebenarnya 150rb"

*Transfer*
• "transfer 100rb dari cash ke tabungan"

*Laporan*
• "riwayat hari ini" / "riwayat bulan lalu"
• "statistik bulan ini" / "statistik maret"
• "export excel pengeluaran bulan ini"

*Bisnis*
• "buat bisnis toko bunga user admin password rahasia"
• "login bisnis toko bunga user admin password rahasia"
• "tambah bahan pita 2000" / "daftar bahan"
• "tambah harga 75000" / "daftar katalog"
• "hitung modal 3 mawar, 1 pita"
• "statistik bisnis"
• "exit" untuk keluar dari mode bisnis

*Lainnya*
• "backup" kirim database ke owner
• "help" tampilkan panduan ini`
