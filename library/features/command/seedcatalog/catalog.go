package seedcatalog

// Entry describes one seeded book. BorrowCount pre-sets the popularity counter.
type Entry struct {
	Title       string
	Author      string
	ISBN        string
	Genre       string
	Description string
	TotalCopies int
	BorrowCount int
}

// DefaultCatalog is the demo catalog of a fresh installation.
func DefaultCatalog() []Entry {
	return []Entry{
		{
			Title:       "The Great Gatsby",
			Author:      "F. Scott Fitzgerald",
			ISBN:        "978-0743273565",
			Genre:       "Fiction",
			Description: "A classic American novel about the Jazz Age and the American Dream.",
			TotalCopies: 5,
			BorrowCount: 12,
		},
		{
			Title:       "To Kill a Mockingbird",
			Author:      "Harper Lee",
			ISBN:        "978-0061120084",
			Genre:       "Fiction",
			Description: "A gripping tale of racial injustice and childhood innocence in the American South.",
			TotalCopies: 3,
			BorrowCount: 15,
		},
		{
			Title:       "1984",
			Author:      "George Orwell",
			ISBN:        "978-0451524935",
			Genre:       "Dystopian",
			Description: "A dystopian novel about totalitarianism and surveillance.",
			TotalCopies: 4,
			BorrowCount: 18,
		},
		{
			Title:       "Pride and Prejudice",
			Author:      "Jane Austen",
			ISBN:        "978-0486284736",
			Genre:       "Romance",
			Description: "A romantic novel that critiques the British landed gentry at the end of the 18th century.",
			TotalCopies: 2,
			BorrowCount: 10,
		},
		{
			Title:       "The Catcher in the Rye",
			Author:      "J.D. Salinger",
			ISBN:        "978-0316769488",
			Genre:       "Fiction",
			Description: "A controversial novel about teenage rebellion and angst.",
			TotalCopies: 3,
			BorrowCount: 8,
		},
		{
			Title:       "The Hobbit",
			Author:      "J.R.R. Tolkien",
			ISBN:        "978-0547928227",
			Genre:       "Fantasy",
			Description: "A fantasy adventure about Bilbo Baggins and his unexpected journey.",
			TotalCopies: 4,
			BorrowCount: 22,
		},
		{
			Title:       "Harry Potter and the Sorcerer's Stone",
			Author:      "J.K. Rowling",
			ISBN:        "978-0590353427",
			Genre:       "Fantasy",
			Description: "The first book in the Harry Potter series about a young wizard's adventures.",
			TotalCopies: 6,
			BorrowCount: 25,
		},
		{
			Title:       "The Da Vinci Code",
			Author:      "Dan Brown",
			ISBN:        "978-0307474278",
			Genre:       "Thriller",
			Description: "A mystery thriller involving secret societies and hidden messages.",
			TotalCopies: 3,
			BorrowCount: 16,
		},
		{
			Title:       "Sapiens: A Brief History of Humankind",
			Author:      "Yuval Noah Harari",
			ISBN:        "978-0062316097",
			Genre:       "Non-Fiction",
			Description: "A sweeping narrative of the history of humankind.",
			TotalCopies: 2,
			BorrowCount: 9,
		},
		{
			Title:       "The Alchemist",
			Author:      "Paulo Coelho",
			ISBN:        "978-0061122415",
			Genre:       "Fiction",
			Description: "A philosophical novel about following one's dreams.",
			TotalCopies: 4,
			BorrowCount: 11,
		},
		{
			Title:       "Dune",
			Author:      "Frank Herbert",
			ISBN:        "978-0441172719",
			Genre:       "Science Fiction",
			Description: "An epic science fiction novel set on the desert planet Arrakis.",
			TotalCopies: 3,
			BorrowCount: 14,
		},
		{
			Title:       "The Lord of the Rings",
			Author:      "J.R.R. Tolkien",
			ISBN:        "978-0544003415",
			Genre:       "Fantasy",
			Description: "The epic fantasy trilogy that defined the genre.",
			TotalCopies: 2,
			BorrowCount: 20,
		},
	}
}
