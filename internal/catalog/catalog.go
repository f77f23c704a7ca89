// Package catalog holds the built-in stories that ship with the
// application. Catalog entries are immutable; regenerated variants are
// layered over them by the repository.
package catalog

import (
	"time"

	"fable/internal/story"
)

var seedTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

var seeds = []story.Story{
	{
		ID:       "cat_luna_little_fox",
		Title:    "Luna the Little Fox",
		Category: story.CategoryAnimals,
		AgeGroup: story.AgeGroupToddler,
		Language: story.LanguageEnglish,
		Author:   "Fable",
		Content: "Luna was the smallest fox in the whole forest, but she had the biggest ears. " +
			"With those ears she could hear the river laughing, the leaves whispering, and even the stars humming at night.\n\n" +
			"One evening a baby owl fell out of its nest and cried so quietly that nobody heard it. Nobody except Luna. " +
			"She followed the tiny sound through the dark trees, climbed onto a mossy stone, and gently nudged the owlet back toward its mother.\n\n" +
			"From that night on, whenever something small and scared whispered in the forest, everyone said the same thing: go and find Luna. She will hear you.",
		CreatedAt: seedTime,
	},
	{
		ID:       "cat_cloud_shepherd",
		Title:    "The Cloud Shepherd",
		Category: story.CategoryFantasy,
		AgeGroup: story.AgeGroupKid,
		Language: story.LanguageEnglish,
		Author:   "Fable",
		Content: "High above the tallest mountain lived Pell, the cloud shepherd. Every morning he opened the sky gates and let his flock of clouds wander out to graze on sunlight.\n\n" +
			"Most clouds behaved. But one round little cloud named Puff refused to rain where he was supposed to. He rained on parades, on picnics, and once, very rudely, inside a lion's open mouth.\n\n" +
			"Pell did not scold him. Instead he showed Puff a village where the wells had gone dry and the gardens drooped. Puff looked down for a long time. Then he puffed himself up bigger than he had ever been and rained for three days straight.\n\n" +
			"The villagers planted a flag on the hill to thank the sky. Puff still rains in silly places sometimes. But never, ever on the thirsty.",
		CreatedAt: seedTime,
	},
	{
		ID:       "cat_goodnight_harbor",
		Title:    "Goodnight, Little Harbor",
		Category: story.CategoryBedtime,
		AgeGroup: story.AgeGroupBaby,
		Language: story.LanguageEnglish,
		Author:   "Fable",
		Content: "The sun slides into the sea. Splash, goodnight.\n\n" +
			"The boats rock slowly. Creak, creak, goodnight.\n\n" +
			"The lighthouse blinks one sleepy eye. Blink, goodnight.\n\n" +
			"The seagulls tuck their heads under soft wings. Hush, goodnight.\n\n" +
			"And one small child, warm in bed, listens to the waves counting slowly. One... two... three... goodnight, little harbor. Goodnight.",
		CreatedAt: seedTime,
	},
	{
		ID:       "cat_map_with_no_north",
		Title:    "The Map With No North",
		Category: story.CategoryAdventure,
		AgeGroup: story.AgeGroupPreteen,
		Language: story.LanguageEnglish,
		Author:   "Fable",
		Content: "The map Marisol found in her grandmother's attic had mountains, rivers, a desert shaped like a sleeping cat, and a big red X. What it did not have was a compass rose. No north, no south, nothing.\n\n" +
			"\"A map with no north,\" her grandmother said, \"can only be read by walking it.\" So Marisol walked. She matched the crooked oak by the gate to a crooked ink line. She matched the creek's three stepping stones to three small dots.\n\n" +
			"The X turned out to be the old greenhouse, and inside it, under a floorboard, a tin box. No gold. Just dozens of letters her grandmother had written at Marisol's age, addressed to whoever is brave enough to walk without north.\n\n" +
			"Marisol read every one. Then she took out a pen, drew a new map of her own, and left off the compass rose on purpose.",
		CreatedAt: seedTime,
	},
	{
		ID:       "cat_keloglan_ruzgar",
		Title:    "Keloğlan ve Rüzgarın Sesi",
		Category: story.CategoryFolk,
		AgeGroup: story.AgeGroupKid,
		Language: story.LanguageTurkish,
		Author:   "Fable",
		Content: "Bir varmış, bir yokmuş. Evvel zaman içinde, kalbur saman içinde, Keloğlan annesiyle küçük bir köyde yaşarmış.\n\n" +
			"Bir gün köyün değirmeni durmuş, çünkü rüzgar küsmüş ve esmez olmuş. Köylüler un öğütemez, ekmek yapamaz olmuşlar. Keloğlan heybesine bir somun ekmek koyup rüzgarı aramaya çıkmış.\n\n" +
			"Dağın ardında rüzgarı bir mağarada otururken bulmuş. \"Neden esmiyorsun?\" diye sormuş. Rüzgar içini çekmiş: \"Kimse şarkılarımı dinlemiyor, herkes kulağını kapatıyor.\"\n\n" +
			"Keloğlan gülmüş: \"Ben dinlerim.\" Oturup rüzgarın bütün şarkılarını dinlemiş. Rüzgar o kadar sevinmiş ki dağları aşıp köye koşmuş, değirmeni döndürmüş. O günden sonra köylüler her akşam damlara çıkıp rüzgarın şarkısını dinler olmuşlar.",
		CreatedAt: seedTime,
	},
	{
		ID:       "cat_minik_kirpi",
		Title:    "Minik Kirpi'nin Yıldızı",
		Category: story.CategoryBedtime,
		AgeGroup: story.AgeGroupToddler,
		Language: story.LanguageTurkish,
		Author:   "Fable",
		Content: "Minik Kirpi her gece uyumadan önce penceresinden bir yıldız seçermiş. \"İyi geceler yıldızım,\" dermiş, \"yarın yine parla.\"\n\n" +
			"Bir gece gökyüzü bulutlarla kaplanmış ve tek bir yıldız bile görünmemiş. Minik Kirpi'nin gözleri dolmuş. Annesi onu kucağına almış ve dikenleri arasına küçük, parlak bir ateş böceği konmuş.\n\n" +
			"\"Bak,\" demiş annesi, \"bu gece yıldızın sana gelmiş.\" Minik Kirpi gülümsemiş, gözlerini kapatmış ve ateş böceğinin yumuşak ışığında uykuya dalmış. İyi geceler, Minik Kirpi.",
		CreatedAt: seedTime,
	},
}

var seedIndex = buildIndex()

func buildIndex() map[string]int {
	index := make(map[string]int, len(seeds))
	for i := range seeds {
		index[seeds[i].ID] = i
	}
	return index
}

// Stories returns the catalog in its fixed display order. Entries are
// cloned so callers can never mutate the seeds.
func Stories() []*story.Story {
	out := make([]*story.Story, len(seeds))
	for i := range seeds {
		out[i] = seeds[i].Clone()
	}
	return out
}

// Contains reports whether id names a catalog entry.
func Contains(id string) bool {
	_, ok := seedIndex[id]
	return ok
}

// Len returns the number of catalog entries.
func Len() int {
	return len(seeds)
}
